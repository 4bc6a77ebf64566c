package dsl

import (
	"fmt"
	"strconv"
	"strings"
)

// Assignments returns the block's key/value statements in source order.
func (b *Block) Assignments() []*Assignment {
	if b == nil {
		return nil
	}
	var out []*Assignment
	for _, st := range b.Statements {
		if st.Assignment != nil {
			out = append(out, st.Assignment)
		}
	}
	return out
}

// Commands returns the block's commands with the given name; an empty name
// returns all commands.
func (b *Block) Commands(name string) []*Command {
	if b == nil {
		return nil
	}
	var out []*Command
	for _, st := range b.Statements {
		if st.Command != nil && (name == "" || st.Command.Name == name) {
			out = append(out, st.Command)
		}
	}
	return out
}

// Texts returns the bare string statements of the block.
func (b *Block) Texts() []string {
	if b == nil {
		return nil
	}
	var out []string
	for _, st := range b.Statements {
		if st.Text != nil {
			out = append(out, string(st.Text.Value))
		}
	}
	return out
}

// Arg returns the i-th argument value, or "" when absent.
func (c *Command) Arg(i int) string {
	if c == nil || i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i].Text()
}

// Text returns the argument as written, with strings unquoted.
func (a *Arg) Text() string {
	switch {
	case a == nil:
		return ""
	case a.String != nil:
		return string(*a.String)
	case a.Word != nil:
		return *a.Word
	default:
		return ""
	}
}

// Text returns the value as a string: the unquoted literal, the number or
// colour as written, or the bare identifier.
func (v *Value) Text() (string, bool) {
	switch {
	case v == nil:
		return "", false
	case v.String != nil:
		return string(*v.String), true
	case v.Number != nil:
		return *v.Number, true
	case v.Color != nil:
		return *v.Color, true
	case v.Word != nil:
		return *v.Word, true
	default:
		return "", false
	}
}

// Float parses a numeric value, ignoring a trailing unit such as px.
func (v *Value) Float() (float64, error) {
	s, ok := v.Text()
	if !ok {
		return 0, fmt.Errorf("值不是数字")
	}
	s = strings.TrimRight(strings.TrimSpace(s), "pxtms%")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("无法解析数字 %q: %w", s, err)
	}
	return f, nil
}

// Bool accepts true/false/yes/no/on/off.
func (v *Value) Bool() (bool, error) {
	s, _ := v.Text()
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	default:
		return false, fmt.Errorf("无法解析布尔值 %q", s)
	}
}

// Strings flattens an array of scalar values; a scalar yields one element.
func (v *Value) Strings() []string {
	if v == nil {
		return nil
	}
	if v.List == nil {
		if s, ok := v.Text(); ok {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(v.List.Values))
	for _, item := range v.List.Values {
		if s, ok := item.Text(); ok {
			out = append(out, s)
		}
	}
	return out
}
