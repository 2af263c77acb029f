// Package i18n provides the read-only message catalog used by prompt
// construction. The experiment state machines never touch this package:
// language is resolved where prompt text is built and nowhere else.
package i18n

import "fmt"

// Catalog resolves message keys for one language.
type Catalog struct {
	language string
	messages map[string]string
}

// NewCatalog returns the catalog for the given language key, falling back to
// English for languages without a message table.
func NewCatalog(language string) *Catalog {
	msgs, ok := tables[language]
	if !ok {
		msgs = tables["en"]
		language = "en"
	}
	return &Catalog{language: language, messages: msgs}
}

// Language returns the resolved language key.
func (c *Catalog) Language() string {
	return c.language
}

// Get resolves a message key. Unknown keys return the key itself so a
// missing translation shows up in output instead of vanishing.
func (c *Catalog) Get(key string) string {
	if msg, ok := c.messages[key]; ok {
		return msg
	}
	return key
}

// Getf resolves a key and formats it with the given arguments.
func (c *Catalog) Getf(key string, args ...any) string {
	return fmt.Sprintf(c.Get(key), args...)
}

// tables holds the per-language message tables. Only English ships today;
// the structure exists so adding a language touches this file only.
var tables = map[string]map[string]string{
	"en": {
		"role.preamble":          "You are %s, a participant in an economics experiment about fair income distribution. Your personality: %s.",
		"role.bank":              "Your current bank balance is $%.2f.",
		"role.memory":            "Your private notes so far:\n%s",
		"role.phase":             "You are in phase %d, round %d.",
		"ranking.initial":        "Four principles for choosing an income distribution are on the table:\n%s\nRank all four from 1 (best) to 4 (worst) and state how certain you are (very_unsure, unsure, no_opinion, sure, very_sure). Explain your reasoning, then state the ranking clearly.",
		"ranking.final.phase1":   "You have now applied these principles over several rounds and seen the earnings. Rank all four principles again from 1 to 4 with your certainty level.",
		"ranking.final.phase2":   "The group phase is over. Considering everything - your own rounds and the group discussion - rank all four principles one last time from 1 to 4 with your certainty level.",
		"explanation.detail":     "Here is a detailed explanation of each principle with a worked example:\n%s\nAcknowledge briefly that you have read it.",
		"round.choose":           "Here are four possible income distributions (yearly incomes by class):\n%s\nChoose the principle to apply. If you choose a floor or range constraint, you must state the exact dollar amount of your constraint.",
		"round.outcome":          "You chose %s. That selected distribution %d. The lottery assigned you to the %s income class: income $%d, payoff $%.2f. Under the other principles, with the same class assignment, you would have earned: %s.",
		"phase2.discuss":         "The group must adopt ONE principle of justice that will determine everyone's earnings. Discussion so far:\n%s\nIt is your turn to speak. Address the group. If you believe the group is ready to decide, you may propose a vote.",
		"phase2.reason":          "Before you speak, think privately about where the discussion stands and what you want to achieve with your statement. This reasoning will not be shown to anyone.",
		"phase2.reason_context":  "Your private reflection before speaking (no one else will see it):\n%s",
		"phase2.agree":           "%s has proposed that the group vote now. Do you agree to vote now? Answer yes or no.",
		"phase2.ballot":          "The group agreed to vote. Privately state the principle you vote for. If it is a floor or range constraint, state the exact dollar amount. This ballot is secret.",
		"phase2.no_consensus":    "Ballot in round %d did not reach consensus. Votes: %s. Discussion continues.",
		"phase2.consensus":       "The group reached consensus in round %d on: %s.",
		"phase2.result.applied":  "The group's principle (%s) selected distribution %d. Your lottery draw: %s class, income $%d, payoff $%.2f. Under the alternatives with the same draw you would have earned: %s.",
		"phase2.result.random":   "The group reached no consensus, so a distribution and class were assigned to you at random: %s class of distribution %d, income $%d, payoff $%.2f. Under the four principles with the same draw you would have earned: %s.",
		"memory.update":          "Update your private notes. Latest event: %s\nCurrent notes:\n%s\nRewrite the notes to carry forward everything you want to remember. Stay under %d characters. Reply with only the new notes.",
		"memory.too_long":        "Your notes draft was %d characters, over the %d character limit. Shorten them, keeping what matters most. Draft:\n%s\nReply with only the new notes.",
		"statement.empty_retry":  "Your statement was empty. The group is waiting - please make a substantive statement.",
		"parse.retry":            "Your previous answer could not be used: %s. Please answer again, precisely.",
		"principle.desc.maximizing_floor":                     "Maximizing the floor income: choose the distribution whose worst-off class earns the most, regardless of the average.",
		"principle.desc.maximizing_average":                   "Maximizing the average income: choose the distribution with the highest expected income under the class lottery, regardless of how low the floor falls.",
		"principle.desc.maximizing_average_floor_constraint":  "Maximizing the average with a floor constraint: among distributions whose lowest income is at least your stated dollar floor, choose the one with the highest average.",
		"principle.desc.maximizing_average_range_constraint":  "Maximizing the average with a range constraint: among distributions whose gap between highest and lowest income is at most your stated dollar amount, choose the one with the highest average.",
		"explanation.body":                                    "Each round you will see four income distributions, each listing the yearly income of five classes (high, medium-high, medium, medium-low, low). The principle you choose selects one distribution; a weighted lottery then assigns you an income class within it, and your payoff is $1 per $10,000 of that income. Example: if the floor principle selects a distribution whose low class earns $15,000 and the lottery assigns you the low class, you earn $1.50. A floor constraint of $14,000 would rule out any distribution whose lowest income is below $14,000; if none qualifies, the highest-average distribution is used instead. A range constraint works the same way on the gap between top and bottom incomes.",
	},
}
