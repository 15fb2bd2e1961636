// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package expr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postfixString(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = tok.String()
	}
	return strings.Join(parts, " ")
}

func TestToPostfix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "2+3*4", want: "2 3 4 * +"},
		{in: "(2+3)*4", want: "2 3 + 4 *"},
		{in: "8-3-2", want: "8 3 - 2 -"},
		{in: "8/4/2", want: "8 4 / 2 /"},
		{in: "2*3+4", want: "2 3 * 4 +"},
		{in: "1-2*3+4", want: "1 2 3 * - 4 +"},
		{in: "((1))", want: "1"},
		{in: "-3*2", want: "-3 2 *"},
		{in: "(10+15)*4", want: "10 15 + 4 *"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tokens, err := Tokenize(tt.in)
			require.NoError(t, err)
			got, err := ToPostfix(tokens)
			require.NoError(t, err)
			assert.Equal(t, tt.want, postfixString(got))
			for _, tok := range got {
				assert.NotEqual(t, KindLeftParen, tok.Kind)
				assert.NotEqual(t, KindRightParen, tok.Kind)
			}
		})
	}
}

func TestToPostfixUnbalanced(t *testing.T) {
	for _, in := range []string{"(1+2", "1+2)", ")(", "((1)", "(", ")"} {
		t.Run(in, func(t *testing.T) {
			tokens, err := Tokenize(in)
			require.NoError(t, err)
			_, err = ToPostfix(tokens)
			require.ErrorIs(t, err, ErrUnbalanced)
		})
	}
}
