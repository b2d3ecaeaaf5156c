package mutation

import "fmt"

// DeletePrompt is the confirmation shown before a delete.
const DeletePrompt = "Are you sure? You won't be able to revert this !"

// Messages returns the success and failure notices for op on entity,
// e.g. "menu" or "table".
func Messages(entity string, op Operation) (success, failure string) {
	switch op {
	case Create:
		return fmt.Sprintf("Add successfully, %s created !", entity), fmt.Sprintf("Add %s failed !", entity)
	case Update:
		return fmt.Sprintf("Edit successfully, %s updated !", entity), fmt.Sprintf("Edit %s failed !", entity)
	case Delete:
		return fmt.Sprintf("%s deleted !", capitalize(entity)), fmt.Sprintf("Delete %s failed !", entity)
	default:
		return "", ""
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
