package parser

import "strconv"

func parseIntLexeme(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
