package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, IsEmpty(c.input), "IsEmpty(%q)", c.input)
	}
}

func TestIsValidUUID(t *testing.T) {
	valid := []string{
		"0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b",
		"123e4567-e89b-12d3-a456-426614174000",
		"123E4567-E89B-12D3-A456-426614174000",
	}
	invalid := []string{
		"0188d0f27b8c7b4a8a2b6b8b8b8b8b8b",
		"g188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b",
		"{123e4567-e89b-12d3-a456-426614174000}",
		"",
	}
	for _, id := range valid {
		assert.True(t, IsValidUUID(id), "IsValidUUID(%q)", id)
	}
	for _, id := range invalid {
		assert.False(t, IsValidUUID(id), "IsValidUUID(%q)", id)
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2023-01-01", "2000-12-31"}
	invalid := []string{"2023-13-01", "2023-01-32", "2023/01/01", "01-01-2023", ""}
	for _, s := range valid {
		_, ok := IsValidDate(s)
		assert.True(t, ok, "IsValidDate(%q)", s)
	}
	for _, s := range invalid {
		_, ok := IsValidDate(s)
		assert.False(t, ok, "IsValidDate(%q)", s)
	}
}

func TestIsInSlice(t *testing.T) {
	slice := []string{"a", "b", "c"}
	assert.True(t, IsInSlice("a", slice))
	assert.False(t, IsInSlice("d", slice))
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "email", Message: "invalid"},
		{Field: "phone", Message: "required"},
	}
	assert.Equal(t, "email: invalid; phone: required", errs.Error())
}

func TestValidationErrors_ToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "email", Message: "invalid"},
		{Field: "phone", Message: "required"},
	}
	assert.Equal(t, map[string]string{"email": "invalid", "phone": "required"}, errs.ToMap())
}

type sampleRequest struct {
	ID       string  `json:"-"`
	Name     string  `json:"name" validate:"required,max=5"`
	Kind     string  `json:"kind" validate:"oneof=allowance deduction"`
	Count    int     `json:"count,omitempty" validate:"min=1"`
	Date     *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Employee string  `json:"employee_id" validate:"required,uuid"`
}

func TestStruct(t *testing.T) {
	t.Run("valid request returns nil", func(t *testing.T) {
		date := "2025-01-31"
		req := sampleRequest{
			Name:     "Meal",
			Kind:     "allowance",
			Count:    1,
			Date:     &date,
			Employee: "123e4567-e89b-12d3-a456-426614174000",
		}
		assert.Nil(t, Struct(&req))
	})

	t.Run("failures are keyed by json name", func(t *testing.T) {
		date := "31-01-2025"
		req := sampleRequest{
			Name:     "Transport",
			Kind:     "bonus",
			Date:     &date,
			Employee: "not-a-uuid",
		}
		errs := Struct(&req)
		require.NotNil(t, errs)

		got := errs.ToMap()
		assert.Equal(t, "must be at most 5 characters", got["name"])
		assert.Equal(t, "must be one of: allowance, deduction", got["kind"])
		assert.Equal(t, "must be at least 1", got["count"])
		assert.Equal(t, "must match format 2006-01-02", got["date"])
		assert.Equal(t, "must be a valid UUID", got["employee_id"])
	})

	t.Run("missing required field", func(t *testing.T) {
		errs := Struct(&sampleRequest{Kind: "deduction", Count: 2, Employee: "123e4567-e89b-12d3-a456-426614174000"})
		require.Len(t, errs, 1)
		assert.Equal(t, "name", errs[0].Field)
		assert.Equal(t, "is required", errs[0].Message)
	})
}
