/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package promptbuilder renders prompt templates with `{{name}}` placeholders.
//
// Templates can only be created from string literals, and placeholders can
// only be filled with developer literals or with XML-encoded data. Untrusted
// text, such as a model response under judgement, therefore always reaches
// the judge escaped inside an XML element and cannot inject new placeholders
// or instructions that look like template structure.
//
//	var p = promptbuilder.MustNewPrompt(`Compare {{response_a}} and {{response_b}}`)
//
//	bound, err := p.BindXML("response_a", element{Name: "response_a", Text: a})
//	...
//	text, err := bound.Build()
package promptbuilder

import (
	"encoding/xml"
	"fmt"
	"maps"
	"slices"
)

// stringLiteral only accepts untyped string constants from callers outside
// this package.
type stringLiteral string

// Prompt is an immutable template plus the values bound so far.
type Prompt struct {
	template string
	bindings map[string]binding
}

// NewPrompt parses template and records every placeholder as unbound.
func NewPrompt(template stringLiteral) (*Prompt, error) {
	bindings := make(map[string]binding)
	tmpl, err := walkTemplate(string(template), func(name string) (string, error) {
		bindings[name] = unbound{name: name}
		return "{{" + name + "}}", nil
	})
	if err != nil {
		return nil, err
	}
	return &Prompt{template: tmpl, bindings: bindings}, nil
}

// MustNewPrompt is NewPrompt for package-level templates; it panics on error.
func MustNewPrompt(template stringLiteral) *Prompt {
	p, err := NewPrompt(template)
	if err != nil {
		panic(err)
	}
	return p
}

// Placeholders returns the sorted placeholder names found in the template.
func (p *Prompt) Placeholders() []string {
	return slices.Sorted(maps.Keys(p.bindings))
}

// BindLiteral fills name with a developer-provided literal.
func (p *Prompt) BindLiteral(name string, value stringLiteral) (*Prompt, error) {
	return p.bind(name, literal(value))
}

// BindXML fills name with data marshaled by encoding/xml, which escapes any
// markup in character data.
func (p *Prompt) BindXML(name string, data any) (*Prompt, error) {
	return p.bind(name, xmlValue{data: data})
}

func (p *Prompt) bind(name string, b binding) (*Prompt, error) {
	current, ok := p.bindings[name]
	if !ok {
		return nil, fmt.Errorf("binding %q not found in template", name)
	}
	if _, isUnbound := current.(unbound); !isUnbound {
		return nil, fmt.Errorf("binding %q already bound", name)
	}
	next := &Prompt{template: p.template, bindings: maps.Clone(p.bindings)}
	next.bindings[name] = b
	return next, nil
}

// Build renders the template. It fails if any placeholder is still unbound.
func (p *Prompt) Build() (string, error) {
	values := make(map[string]string, len(p.bindings))
	for name, b := range p.bindings {
		v, err := b.value()
		if err != nil {
			return "", err
		}
		values[name] = v
	}
	return walkTemplate(p.template, func(name string) (string, error) {
		v, ok := values[name]
		if !ok {
			return "", fmt.Errorf("internal error: binding %q has no value", name)
		}
		return v, nil
	})
}

type binding interface {
	value() (string, error)
}

type unbound struct{ name string }

func (u unbound) value() (string, error) {
	return "", fmt.Errorf("unbound placeholder: %s", u.name)
}

type literal string

func (l literal) value() (string, error) { return string(l), nil }

type xmlValue struct{ data any }

func (x xmlValue) value() (string, error) {
	b, err := xml.MarshalIndent(x.data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal XML: %w", err)
	}
	return string(b), nil
}
