// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package expr

import "fmt"

// ToPostfix reorders infix tokens into postfix order using the
// shunting-yard algorithm. The result never contains parentheses.
func ToPostfix(tokens []Token) ([]Token, error) {
	out := make([]Token, 0, len(tokens))
	var stack []Token

	for _, tok := range tokens {
		switch tok.Kind {
		case KindNumber:
			out = append(out, tok)

		case KindOperator:
			// Left-associative: equal precedence pops too.
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.Kind != KindOperator || top.Op.Precedence() < tok.Op.Precedence() {
					break
				}
				out = append(out, top)
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, tok)

		case KindLeftParen:
			stack = append(stack, tok)

		case KindRightParen:
			for {
				if len(stack) == 0 {
					return nil, fmt.Errorf("%w: unmatched ')'", ErrUnbalanced)
				}
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.Kind == KindLeftParen {
					break
				}
				out = append(out, top)
			}

		default:
			return nil, fmt.Errorf("%w: unexpected token %s", ErrMalformed, tok)
		}
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.Kind != KindOperator {
			return nil, fmt.Errorf("%w: unmatched '('", ErrUnbalanced)
		}
		out = append(out, top)
	}
	return out, nil
}
