package cache

import (
	"context"
	"errors"
	"testing"
)

type mockCacheService struct {
	result any
	err    error
}

func (m *mockCacheService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	return m.result, m.err
}

func (m *mockCacheService) Delete(ctx context.Context, key string) error {
	return nil
}

func (m *mockCacheService) DeleteByPrefix(ctx context.Context, prefix string) error {
	return nil
}

func TestGetOrFetch_NilInterfaceResult(t *testing.T) {
	mock := &mockCacheService{result: nil}

	type Record interface {
		Identifier() string
	}

	result, err := GetOrFetch[Record](context.Background(), mock, "key", func(ctx context.Context) (Record, error) {
		return nil, nil
	})
	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrFetch_TypeMismatch(t *testing.T) {
	mock := &mockCacheService{result: "wrong-type"}

	result, err := GetOrFetch[int](context.Background(), mock, "key", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if !errors.Is(err, ErrInvalidResultType) {
		t.Errorf("expected ErrInvalidResultType but got: %v", err)
	}
	if result != 0 {
		t.Errorf("expected zero value but got: %v", result)
	}
}

func TestGetOrFetch_PropagatesError(t *testing.T) {
	fetchErr := errors.New("not found")
	mock := &mockCacheService{err: fetchErr}

	_, err := GetOrFetch[string](context.Background(), mock, "key", func(ctx context.Context) (string, error) {
		return "", fetchErr
	})
	if !errors.Is(err, fetchErr) {
		t.Errorf("expected fetch error but got: %v", err)
	}
}

func TestGetOrFetch_RealService(t *testing.T) {
	svc, err := NewCacheService(DefaultConfig())
	if err != nil {
		t.Fatalf("NewCacheService: %v", err)
	}

	calls := 0
	fetch := func(ctx context.Context) (string, error) {
		calls++
		return "Es Jeruk", nil
	}

	for i := 0; i < 2; i++ {
		got, err := GetOrFetch(context.Background(), svc, "menus.detail::7", fetch)
		if err != nil {
			t.Fatalf("GetOrFetch: %v", err)
		}
		if got != "Es Jeruk" {
			t.Errorf("unexpected value %q", got)
		}
	}
	if calls != 1 {
		t.Errorf("expected one fetch, got %d", calls)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
	if err := (Config{}).Validate(); err == nil {
		t.Error("expected empty config to be invalid")
	}
}
