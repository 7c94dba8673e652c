// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package filter

import (
	"fmt"
	"strconv"
)

// CompileError reports a parse or operator-resolution failure; it
// aborts compilation of this filter only.
type CompileError struct {
	Pos int
	Msg string
}

func (e *CompileError) Error() string { return fmt.Sprintf("filter: %d: %s", e.Pos, e.Msg) }

// parser is a recursive-descent parser: the recursion itself serves
// as the stack of open parenthesised subtrees, with toks as the shared
// input each level consumes from and pos as the cursor into it.
type parser struct {
	toks []Tok
	pos  int
}

func (p *parser) peek() Tok {
	if p.pos >= len(p.toks) {
		return Tok{Kind: TokEOF}
	}
	return p.toks[p.pos]
}

func (p *parser) next() Tok {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) expectOp(text string) error {
	t := p.next()
	if t.Kind != TokOp || t.Text != text {
		return &CompileError{t.Pos, fmt.Sprintf("expected %q, got %q", text, t.Text)}
	}
	return nil
}

// Compile parses and type-checks a filter expression into an
// evaluation tree. An empty expression compiles to Idle.
func Compile(expr string) (Node, error) {
	if len(expr) == 0 {
		return Idle{}, nil
	}
	toks, err := Tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != TokEOF {
		return nil, &CompileError{p.peek().Pos, fmt.Sprintf("unexpected token %q", p.peek().Text)}
	}
	return n, nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Kind == TokOp && p.peek().Text == "|" {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Or{left, right}
	}
	return left, nil
}

// parseAnd handles both '&' and '^' at the same precedence level, per
// the grammar's note that xor is folded into and's precedence.
func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().Kind == TokOp && (p.peek().Text == "&" || p.peek().Text == "^") {
		op := p.next().Text
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		if op == "&" {
			left = &And{left, right}
		} else {
			left = &Xor{left, right}
		}
	}
	return left, nil
}

func (p *parser) parseNot() (Node, error) {
	if p.peek().Kind == TokOp && p.peek().Text == "!" {
		p.next()
		child, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return &Not{child}, nil
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (Node, error) {
	if p.peek().Kind == TokOp && p.peek().Text == "(" {
		p.next()
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return n, nil
	}
	return p.parseLeaf()
}

var relOps = map[string]Rel{
	"=": RelEQ, "!=": RelNE, "<": RelLT, "<=": RelLE, ">": RelGT, ">=": RelGE,
}

func (p *parser) parseLeaf() (*Leaf, error) {
	fieldTok := p.next()
	if fieldTok.Kind != TokIdent {
		return nil, &CompileError{fieldTok.Pos, fmt.Sprintf("expected field, got %q", fieldTok.Text)}
	}
	path := splitField(fieldTok.Text)
	if len(path) < 2 {
		return nil, &CompileError{fieldTok.Pos, fmt.Sprintf("field %q must have a namespace", fieldTok.Text)}
	}

	relTok := p.next()
	rel, ok := relOps[relTok.Text]
	if relTok.Kind != TokOp || !ok {
		return nil, &CompileError{relTok.Pos, fmt.Sprintf("expected relational operator, got %q", relTok.Text)}
	}

	valTok := p.next()
	var vkind ValueKind
	switch valTok.Kind {
	case TokIdent:
		vkind = ValueIdent
	case TokString:
		vkind = ValueString
	case TokNumber:
		vkind = ValueNumber
	default:
		return nil, &CompileError{valTok.Pos, fmt.Sprintf("expected value, got %q", valTok.Text)}
	}

	sel, subpath, err := resolveField(path)
	if err != nil {
		return nil, &CompileError{fieldTok.Pos, err.Error()}
	}
	k := selectorKind(sel)
	if !relAllowed(k, rel) {
		return nil, &CompileError{relTok.Pos, fmt.Sprintf("operator %q not valid on field %q", rel, fieldTok.Text)}
	}

	cmp, err := compileComparator(sel, subpath, rel, vkind, valTok.Text)
	if err != nil {
		return nil, &CompileError{valTok.Pos, err.Error()}
	}

	return &Leaf{Selector: sel, Rel: rel, Raw: valTok.Text, Kind: vkind, cmp: cmp}, nil
}

// compileComparator builds the closure that, given an EvalContext,
// produces (result, ok): ok is false when the referenced context is
// absent.
func compileComparator(sel Selector, subpath string, rel Rel, vkind ValueKind, raw string) (func(*EvalContext) (bool, bool), error) {
	switch sel {
	case SelTraceName:
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Trace == nil {
				return false, false
			}
			return compareStrings(ctx.Trace.Dir, raw, rel), true
		}, nil

	case SelTracefileName:
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Tracefile == nil {
				return false, false
			}
			return compareStrings(ctx.Tracefile.ShortName, raw, rel), true
		}, nil

	case SelStatePID:
		want, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Process == nil {
				return false, false
			}
			return compareInt64(int64(ctx.Process.Key.PID), want, rel), true
		}, nil

	case SelStatePPID:
		want, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Process == nil {
				return false, false
			}
			return compareInt64(int64(ctx.Process.PPID), want, rel), true
		}, nil

	case SelStateCreationTime:
		want, err := parseTimeLiteral(raw)
		if err != nil {
			return nil, err
		}
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Process == nil {
				return false, false
			}
			return compareTime(ctx.Process.Key.CreationTime, want, rel), true
		}, nil

	case SelStateInsertionTime:
		want, err := parseTimeLiteral(raw)
		if err != nil {
			return nil, err
		}
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Process == nil {
				return false, false
			}
			return compareTime(ctx.Process.InsertionTime, want, rel), true
		}, nil

	case SelStateProcessName:
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Process == nil {
				return false, false
			}
			return compareStrings(ctx.Process.Name, raw, rel), true
		}, nil

	case SelStateThreadBrand:
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Process == nil {
				return false, false
			}
			return compareStrings(ctx.Process.Brand, raw, rel), true
		}, nil

	case SelStateExecutionMode:
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Process == nil {
				return false, false
			}
			return compareStrings(ctx.Process.TopFrame().Mode.String(), raw, rel), true
		}, nil

	case SelStateExecutionSubmode:
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Process == nil {
				return false, false
			}
			return compareStrings(ctx.Process.TopFrame().Submode, raw, rel), true
		}, nil

	case SelStateProcessStatus:
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Process == nil {
				return false, false
			}
			return compareStrings(ctx.Process.TopFrame().Status.String(), raw, rel), true
		}, nil

	case SelStateCPU:
		want, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Process == nil {
				return false, false
			}
			return compareInt64(int64(ctx.Process.CPU), want, rel), true
		}, nil

	case SelEventName:
		wantChannel, wantName := splitEventName(raw)
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Event == nil || ctx.Event.Marker == nil {
				return false, false
			}
			gotName := ctx.Event.Marker.Name
			gotChannel := ""
			if ctx.Tracefile != nil {
				gotChannel = ctx.Tracefile.ShortName
			}
			match := gotName == wantName && (wantChannel == "" || gotChannel == wantChannel)
			if rel == RelNE {
				return !match, true
			}
			return match, true
		}, nil

	case SelEventSubname:
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Event == nil || ctx.Event.Marker == nil {
				return false, false
			}
			return compareStrings(ctx.Event.Marker.Format, raw, rel), true
		}, nil

	case SelEventCategory:
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Event == nil || ctx.Tracefile == nil {
				return false, false
			}
			return compareStrings(ctx.Tracefile.ShortName, raw, rel), true
		}, nil

	case SelEventTime:
		want, err := parseTimeLiteral(raw)
		if err != nil {
			return nil, err
		}
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Event == nil {
				return false, false
			}
			return compareTime(ctx.Event.Time, want, rel), true
		}, nil

	case SelEventTSC:
		want, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Event == nil {
				return false, false
			}
			return compareUint64(ctx.Event.Cycles, want, rel), true
		}, nil

	case SelEventTargetPID:
		want, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Event == nil {
				return false, false
			}
			v, err := ctx.Event.Field("target_pid")
			if err != nil {
				return false, false
			}
			return compareInt64(v.Int, want, rel), true
		}, nil

	case SelEventField:
		return func(ctx *EvalContext) (bool, bool) {
			if ctx.Event == nil {
				return false, false
			}
			v, err := ctx.Event.Field(subpath)
			if err != nil {
				return false, false
			}
			return compareFieldValue(v, rel, vkind, raw), true
		}, nil
	}
	return nil, fmt.Errorf("filter: unsupported selector %d", sel)
}
