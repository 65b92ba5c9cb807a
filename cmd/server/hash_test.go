package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/phrazzld/doafter-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordCommand(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		stdin     string
		passwords []string
	}{
		{"from arguments", []string{"hash-password", "secret123", "тест123"}, "", []string{"secret123", "тест123"}},
		{"from stdin", []string{"hash-password"}, "secret123\r\n\nanother-pass\n", []string{"secret123", "another-pass"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRootCommand()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetIn(strings.NewReader(tt.stdin))
			root.SetArgs(tt.args)

			require.NoError(t, root.Execute())

			hashes := strings.Fields(out.String())
			require.Len(t, hashes, len(tt.passwords))
			hasher := auth.NewBcryptHasher(auth.MinBcryptCost)
			for i, hash := range hashes {
				assert.NoError(t, hasher.Compare(hash, tt.passwords[i]))
			}
		})
	}
}

func TestHashPasswords_Rejects(t *testing.T) {
	hasher := auth.NewBcryptHasher(auth.MinBcryptCost)

	err := hashPasswords(&bytes.Buffer{}, hasher, nil)
	assert.Error(t, err)

	var out bytes.Buffer
	err = hashPasswords(&out, hasher, []string{"short"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, out.String())
}
