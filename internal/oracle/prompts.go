package oracle

import (
	"fmt"
	"strings"

	"murdermystery/internal/mystery"
)

func buildSuspectSystemPrompt(m *mystery.Mystery, graph *mystery.EncounterGraph, suspect *mystery.Suspect, state *mystery.SuspectState, result *InterrogationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, %s, being questioned by a detective about the murder of %s at %s.\n\n",
		suspect.Name, suspect.Role, m.Victim.Name, m.Setting)

	fmt.Fprintf(&b, "Your personality: %s\n", suspect.Personality)

	claim := graph.DeriveAlibiClaim(mystery.RoleID(suspect.Role))
	fmt.Fprintf(&b, "Your alibi: %s. You were at %s, %s.\n", suspect.Alibi, claim.LocationClaimed, claim.Activity)
	if claim.Corroborator != "" {
		fmt.Fprintf(&b, "If pressed, %s can confirm they saw you.\n", claim.Corroborator)
	}

	if suspect.IsGuilty {
		b.WriteString("\nTHE TRUTH (never state this directly): you murdered ")
		fmt.Fprintf(&b, "%s with %s. Motive: %s. Your alibi is a lie.\n", m.Victim.Name, m.Weapon, m.Motive)
		b.WriteString("You deflect, minimize, and subtly shift suspicion toward others. ")
		b.WriteString("You never confess outright, but under extreme pressure your composure slips.\n")
	} else {
		b.WriteString("\nYou are innocent of the murder and your alibi is true.\n")
	}

	fmt.Fprintf(&b, "\nYou are hiding something unrelated to your guilt or innocence: %s\n", suspect.Secret)
	if result.RevealedSecret {
		b.WriteString("In THIS reply you finally let that secret out, in your own words.\n")
	} else {
		b.WriteString("Do not reveal that secret; dodge if asked directly.\n")
	}

	if suspect.ClueTheyKnow != "" {
		fmt.Fprintf(&b, "Something you noticed that night: %s. You mention it only if it comes up naturally.\n", suspect.ClueTheyKnow)
	}
	if result.RevealedLocation && suspect.LocationHint != "" {
		fmt.Fprintf(&b, "You trust the detective enough to share this: %s. Work it into your reply.\n", suspect.LocationHint)
	}

	fmt.Fprintf(&b, "\nCurrent emotional state: trust %d/100, nervousness %d/100. Let that color your tone.\n",
		state.Trust, state.Nervousness)

	b.WriteString("\nAnswer in first person, 2-4 sentences, period dialogue only. No narration, no stage directions.")

	return b.String()
}

func buildSuspectUserPrompt(suspect *mystery.Suspect, state *mystery.SuspectState, question string) string {
	var b strings.Builder

	if n := len(state.Conversations); n > 0 {
		b.WriteString("Earlier in this interrogation:\n")
		start := 0
		if n > 4 {
			start = n - 4
		}
		for _, ex := range state.Conversations[start:] {
			fmt.Fprintf(&b, "Detective: %s\n%s: %s\n", ex.Question, suspect.Name, ex.Answer)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Detective: %s", question)
	return b.String()
}
