package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{"empty", "", "****"},
		{"too short", "+49", "****"},
		{"nothing between edges", "+4917", "+4917"},
		{"one masked digit", "+491761", "+49*761"},
		{"typical mobile", "+4917612345678", "+49********678"},
		{"us number", "+12025550123", "+12******123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Phone(tt.phone)
			assert.Equal(t, tt.want, got)
			if len(tt.phone) >= 4 {
				assert.Len(t, got, len(tt.phone))
			}
		})
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"six digit code", "Your verification code is 123456.", "Your verification code is ****."},
		{"four digit code", "PIN 1234 expires soon", "PIN **** expires soon"},
		{"eight digit code", "code 12345678 ok", "code **** ok"},
		{"two codes", "123456 then 654321", "**** then ****"},
		{"too short run", "room 123", "room 123"},
		{"too long run", "order 123456789", "order 123456789"},
		{"digits inside word", "abc12345def", "abc12345def"},
		{"no digits", "nothing to hide", "nothing to hide"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.text))
		})
	}
}
