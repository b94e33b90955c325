package parser

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer maps the raw string tokens out for our AST definitions.
// Basic whitespace elision is enough for our grammar.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `(?i)\b(?:catch|battle|accept|decline|cancel|move|use|swap|flee|run|throw|team|pokedex|dex|help|wild)\b`},
	{Name: "Hash", Pattern: `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`},
	{Name: "Ts", Pattern: `\d+\.\d+`},
	{Name: "Mention", Pattern: `<?@\w+>?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][\w-]*`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

// Build creates our parser based on the struct tags in `ast.go`
func Build() *participle.Parser[Command] {
	return participle.MustBuild[Command](
		participle.Lexer(Lexer),
		participle.Elide("Whitespace"),
	)
}
