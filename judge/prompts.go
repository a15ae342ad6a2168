/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"chainguard.dev/arena/battle"
	"chainguard.dev/arena/promptbuilder"
)

// DefaultSystemPrompt asks for a bare verdict so that Cleaning rarely has to
// work hard.
const DefaultSystemPrompt = `You are a human preference judge tasked with deciding which of the two assistant responses, A or B, better responds to the user's prompt.

Respond with ONLY "A" if assistant A is better, "B" if assistant B is better, or "-" if neither is better than the other.`

var headToHeadPrompt = promptbuilder.MustNewPrompt(`{{prompt}}

{{response_a}}

{{response_b}}

Which assistant response better answers the user's prompt? Reply with "A", "B", or "-".`)

type userPrompt struct {
	XMLName struct{} `xml:"user_prompt"`
	Content string   `xml:",chardata"`
}

type assistantA struct {
	XMLName struct{} `xml:"assistant_a"`
	Content string   `xml:",chardata"`
}

type assistantB struct {
	XMLName struct{} `xml:"assistant_b"`
	Content string   `xml:",chardata"`
}

// renderHeadToHead builds the user message sent to a judge service.
func renderHeadToHead(h battle.HeadToHead) (string, error) {
	p, err := headToHeadPrompt.BindXML("prompt", userPrompt{Content: h.Prompt()})
	if err != nil {
		return "", err
	}
	if p, err = p.BindXML("response_a", assistantA{Content: h.ResultA.Response}); err != nil {
		return "", err
	}
	if p, err = p.BindXML("response_b", assistantB{Content: h.ResultB.Response}); err != nil {
		return "", err
	}
	return p.Build()
}
