package parser

import "github.com/quill-lang/quill/token"

// Precedence order for operators
const (
	_ int = iota
	LOWEST
	ASSIGN      // =
	COND        // && or ||
	EQUALS      // == or !=
	LESSGREATER // > or <
	SUM         // + or -
	PRODUCT     // * or / or %
	POWER       // **
	PREFIX      // -x or !x
	CALL        // f(x)
	INDEX       // xs[i]
)

// Precedences for each token type
var precedences = map[token.Type]int{
	token.ASSIGN:          ASSIGN,
	token.PLUS_EQUALS:     ASSIGN,
	token.MINUS_EQUALS:    ASSIGN,
	token.ASTERISK_EQUALS: ASSIGN,
	token.SLASH_EQUALS:    ASSIGN,
	token.AND:             COND,
	token.OR:              COND,
	token.EQ:              EQUALS,
	token.NOT_EQ:          EQUALS,
	token.LT:              LESSGREATER,
	token.LT_EQUALS:       LESSGREATER,
	token.GT:              LESSGREATER,
	token.GT_EQUALS:       LESSGREATER,
	token.PLUS:            SUM,
	token.MINUS:           SUM,
	token.ASTERISK:        PRODUCT,
	token.SLASH:           PRODUCT,
	token.MOD:             PRODUCT,
	token.POW:             POWER,
	token.LPAREN:          CALL,
	token.LBRACKET:        INDEX,
}
