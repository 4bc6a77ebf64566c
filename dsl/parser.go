package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	sceneLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		// 颜色必须先于 # 注释匹配，长形式优先
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+)(?:px|pt|ms|s|%|x)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Punct", Pattern: `[][{}:,;]`},
	})

	sceneParser = participle.MustBuild[Document](
		participle.Lexer(sceneLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Document 是场景文件的根节点：scene <名称> <版本> { ... }。
type Document struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Name    string         `parser:"Newline* 'scene' @Ident"`
	Version string         `parser:"@(Ident | Number)"`
	Body    *Block         `parser:"@@ Newline*"`
}

// Block 是花括号包围的语句列表，语句之间以换行或分号分隔。
type Block struct {
	Statements []*Statement `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Statement 为赋值、命令或裸字符串（掩码行）之一。
type Statement struct {
	Assignment *Assignment  `parser:"  @@"`
	Command    *Command     `parser:"| @@"`
	Text       *TextLiteral `parser:"| @@"`
}

// Assignment 形如 key: value。
type Assignment struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident ':' Newline*"`
	Value *Value         `parser:"@@"`
}

// Command 形如 font { ... }、mask image "a.png" 或 token "#" width 1 { ... }。
// 块的左花括号须与命令同行。
type Command struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"@Ident"`
	Args  []*Arg         `parser:"@@*"`
	Block *Block         `parser:"@@?"`
}

// Arg 是命令的一个参数。
type Arg struct {
	String *StringLiteral `parser:"  @String"`
	Word   *string        `parser:"| @(Ident | Number | Color)"`
}

// TextLiteral 是块内的裸字符串语句。
type TextLiteral struct {
	Value StringLiteral `parser:"@String"`
}

// Value 是赋值右侧的值。
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Word   *string        `parser:"| @Ident"`
	List   *List          `parser:"| @@"`
}

// List 形如 [a, b]，元素之间可用逗号或换行分隔，允许尾随分隔符。
type List struct {
	Values []*Value `parser:"'[' Newline* ( @@ ( ( ',' | Newline )+ @@? )* )? ']'"`
}

// StringLiteral 在捕获时按 Go 规则去掉引号。
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("字符串字面量缺少取值")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse 从 io.Reader 解析场景。
func Parse(r io.Reader) (*Document, error) {
	return sceneParser.Parse("", r)
}

// ParseString 从字符串解析场景。
func ParseString(input string) (*Document, error) {
	return sceneParser.ParseString("", input)
}
