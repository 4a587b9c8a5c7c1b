package mystery

import (
	"fmt"
	"strings"
)

const premiseSystemPrompt = `You create the opening premise for a murder mystery game.

Produce a brief, evocative setting (location and occasion), a victim
name that fits the setting, and 1-2 sentences of victim background that
hint at why someone might want them dead.

Output ONLY valid JSON matching the schema.`

const skeletonSystemPrompt = `You are planning a murder mystery game structure.

Your job is to create a SKELETON - the framework that guides detailed generation.
This is NOT the final mystery, just the blueprint.

REQUIREMENTS:
1. Pick which of 4 suspects (index 0-3) will be the murderer
2. Create 4 distinct suspect ROLE BRIEFS (not full characters yet)
3. Choose weapon and motive
4. List 5 specific searchable locations for clues

SUSPECT ROLE BRIEFS should be evocative like:
- "The bitter ex-business partner who lost everything"
- "The charming assistant with a dark secret"
- "The victim's estranged child seeking inheritance"
- "The rival who was publicly humiliated"
%s
CRITICAL: Output ONLY valid JSON. No markdown, no explanation.`

func buildSkeletonPrompts(premise *Premise, era, tone string) (string, string) {
	toneBlock := ""
	if tone != "" {
		toneBlock = fmt.Sprintf("\nTONE: %s\n", tone)
	}
	system := fmt.Sprintf(skeletonSystemPrompt, toneBlock)

	settingInstruction := ""
	if premise != nil {
		settingInstruction = fmt.Sprintf(`Use this EXACT setting and victim:
Setting: %s
Victim: %s - %s

Do NOT change the setting or victim details.`, premise.Setting, premise.VictimName, premise.VictimBackground)
	} else {
		settingInstruction = fmt.Sprintf("Create a vivid setting fitting a %s era murder mystery.", era)
	}

	user := settingInstruction + `

Generate the mystery skeleton with:
- Setting and victim details
- 4 suspect role briefs (one will be the murderer)
- murderer_index (0-3) indicating which suspect is guilty
- Weapon and motive
- 5 specific clue locations fitting the setting

Output ONLY JSON.`

	return system, user
}

func buildSuspectPrompts(skeleton *Skeleton, roleBrief string, isGuilty bool, voiceOptions string) (string, string) {
	guiltBlock := ""
	if isGuilty {
		guiltBlock = fmt.Sprintf(`
THIS SUSPECT IS THE MURDERER.

They killed the victim using: %s
Their motive: %s

CHARACTER RULES FOR THE GUILTY:
- Their alibi should sound plausible but have SUBTLE holes
- Their secret relates to their guilt but doesn't directly confess
- They should seem suspicious if pressed but not obviously guilty
- Design personality that could believably commit this crime
- Their "clue_they_know" should be misleading or deflecting
`, skeleton.Weapon, skeleton.Motive)
	} else {
		guiltBlock = `
This suspect is INNOCENT but should still seem suspicious.

CHARACTER RULES FOR THE INNOCENT:
- Give them their OWN secret unrelated to the murder
- Their alibi should be real but potentially questionable
- They may have HAD motive but didn't act on it
- Their "clue_they_know" should be helpful info they might share
`
	}

	voiceBlock := ""
	if voiceOptions != "" {
		if len(voiceOptions) > 1500 {
			voiceOptions = voiceOptions[:1500]
		}
		voiceBlock = fmt.Sprintf(`
VOICE CASTING:
Design this character to match one of these available voice actors.
Consider gender, age range, and accent when creating the character:

%s

Pick characteristics that fit an available voice well.
`, voiceOptions)
	}

	system := fmt.Sprintf(`You are creating ONE detailed suspect for a murder mystery.

You are building a THREE-DIMENSIONAL character, not a cardboard cutout.
Give them depth, quirks, and believable motivations.

SETTING: %s
VICTIM: %s - %s
%s%s
QUALITY REQUIREMENTS:
- Name should fit the setting and feel authentic
- Personality should be specific, not generic ("nervous and detail-oriented" not just "suspicious")
- Alibi should be specific with times/places
- Secret should be juicy and character-defining
- Their "clue_they_know" should be something they'd realistically know

CRITICAL: Output ONLY valid JSON. No markdown.`,
		skeleton.Setting, skeleton.VictimName, skeleton.VictimBackground, guiltBlock, voiceBlock)

	user := fmt.Sprintf(`Create a fully realized character for this role:
"%s"

Make them memorable and distinct from typical mystery tropes.

Output ONLY JSON.`, roleBrief)

	return system, user
}

func buildCluePrompts(skeleton *Skeleton, murdererRole string) (string, string) {
	locations := strings.Join(skeleton.ClueLocations, ", ")

	system := fmt.Sprintf(`You are designing CLUES for a murder mystery game.

CASE DETAILS:
- Setting: %s
- Victim: %s - %s
- The Murderer's Role: %s
- Weapon: %s
- Motive: %s

CLUE DESIGN RULES:
1. Create 5 clues spread across these locations: %s
2. 3-4 clues should POINT TOWARD the murderer (described above) when combined
3. 1 clue should be a RED HERRING pointing at an innocent suspect
4. Clues should be DISCOVERABLE THINGS: documents, objects, traces, marks
5. Each clue needs: id (clue_1 through clue_5), description, location, significance

PUZZLE DESIGN:
- No single clue should solve the mystery alone
- The clues should interconnect logically
- The solution should feel "obvious in hindsight"
- Red herring should be plausible but have an innocent explanation
- Clues should relate to the murderer's ROLE/MOTIVE, not specific names

CRITICAL: Output ONLY valid JSON.`,
		skeleton.Setting, skeleton.VictimName, skeleton.VictimBackground,
		murdererRole, skeleton.Weapon, skeleton.Motive, locations)

	user := fmt.Sprintf(`Create 5 interconnected clues at these locations:
%s

Design them as a coherent puzzle pointing to "%s".
Include one convincing red herring.

Output ONLY JSON.`, locations, murdererRole)

	return system, user
}
