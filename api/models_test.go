package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const transactionJSON = `{
  "id": "trx-1",
  "transDate": "2024-01-02",
  "user": {"id": "u1", "name": "Budi", "phoneNumber": "0812", "userAccount": {"username": "budi", "roles": [{"role": "ROLE_CUSTOMER"}], "isActive": true}},
  "table": null,
  "transType": {"id": "TA", "desc": "Take Away"},
  "payment": {"transactionStatus": "settlement"},
  "transactionDetails": [
    {"id": "d1", "menu": {"id": "m1", "name": "Nasi Goreng", "price": 15000}, "qty": 2, "price": 30000},
    {"id": "d2", "menu": {"id": "m2", "name": "Es Teh", "price": 8000}, "qty": 3, "price": 24000}
  ]
}`

func TestTransactionDecode(t *testing.T) {
	var trx Transaction
	require.NoError(t, json.Unmarshal([]byte(transactionJSON), &trx))

	assert.Equal(t, "54000", trx.Total().String())
	assert.Equal(t, "-", trx.TableName())
	assert.Equal(t, "settlement", trx.Status())
	assert.Equal(t, "Take Away", trx.TransType.Description)
	assert.Equal(t, Role("ROLE_CUSTOMER"), trx.User.PrimaryRole())
}

func TestRoleDecodesBothShapes(t *testing.T) {
	var roles []Role
	require.NoError(t, json.Unmarshal([]byte(`["ROLE_ADMIN", {"role": "ROLE_CUSTOMER"}]`), &roles))
	assert.Equal(t, []Role{"ROLE_ADMIN", "ROLE_CUSTOMER"}, roles)

	assert.Error(t, json.Unmarshal([]byte(`[42]`), &roles))
}

func TestTransactionHelpersWithTable(t *testing.T) {
	trx := Transaction{Table: &Table{ID: "t1", Name: "T01"}}
	assert.Equal(t, "T01", trx.TableName())
	assert.Empty(t, trx.Status())
	assert.True(t, trx.Total().IsZero())
	assert.Empty(t, User{}.PrimaryRole())
}
