// Package llmtest provides deterministic Client doubles for tests.
package llmtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Rule matches a prompt substring to a canned reply.
type Rule struct {
	Contains string
	Reply    string
	Err      error
}

// ScriptedClient answers prompts from an ordered rule list. The first rule
// whose Contains substring appears in the user prompt wins; prompts matching
// no rule return an error so tests fail loudly instead of silently drifting.
//
// Replies for the same substring can be queued: repeated rules with the same
// Contains value are consumed in order.
type ScriptedClient struct {
	mu    sync.Mutex
	rules []Rule

	// Calls records every prompt seen, for assertions on prompt content.
	Calls []string
}

// NewScriptedClient builds a client from rules.
func NewScriptedClient(rules ...Rule) *ScriptedClient {
	return &ScriptedClient{rules: rules}
}

// Push appends a rule.
func (c *ScriptedClient) Push(rule Rule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = append(c.rules, rule)
}

// Complete implements llm.Client.
func (c *ScriptedClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem implements llm.Client.
func (c *ScriptedClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, userPrompt)

	for i, rule := range c.rules {
		if strings.Contains(userPrompt, rule.Contains) {
			// Consume the rule only when a later rule shares its trigger,
			// so single rules keep answering repeated prompts.
			for _, later := range c.rules[i+1:] {
				if later.Contains == rule.Contains {
					c.rules = append(c.rules[:i], c.rules[i+1:]...)
					break
				}
			}
			if rule.Err != nil {
				return "", rule.Err
			}
			return rule.Reply, nil
		}
	}
	return "", fmt.Errorf("scripted client has no rule for prompt: %.120s", userPrompt)
}

// CallCount returns how many prompts the client has seen.
func (c *ScriptedClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}
