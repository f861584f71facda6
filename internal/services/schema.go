package services

// Response schema for the structured turn call. The generation endpoint is
// asked for application/json constrained to this shape, which decodes
// directly into turn.GameResponse.

var artifactSchema = map[string]interface{}{
	"type": "OBJECT",
	"properties": map[string]interface{}{
		"name":        map[string]interface{}{"type": "STRING"},
		"rarity":      map[string]interface{}{"type": "STRING", "enum": []string{"Legacy", "Cinematic", "Gnostic", "Common"}},
		"effect":      map[string]interface{}{"type": "STRING"},
		"essence":     map[string]interface{}{"type": "STRING", "enum": []string{"Legal", "Hermetic", "Biological", "Akashic", "Cinematic"}},
		"description": map[string]interface{}{"type": "STRING"},
	},
	"required": []string{"name", "rarity", "effect", "essence", "description"},
}

var canonEntrySchema = map[string]interface{}{
	"type": "OBJECT",
	"properties": map[string]interface{}{
		"title":           map[string]interface{}{"type": "STRING"},
		"desc":            map[string]interface{}{"type": "STRING"},
		"weakEnding":      map[string]interface{}{"type": "STRING", "description": "A cryptic clue about the narrative's failure or weakness."},
		"isUserGenerated": map[string]interface{}{"type": "BOOLEAN"},
	},
	"required": []string{"title", "desc", "weakEnding"},
}

var morphemeSchema = map[string]interface{}{
	"type": "OBJECT",
	"properties": map[string]interface{}{
		"root":       map[string]interface{}{"type": "STRING"},
		"power":      map[string]interface{}{"type": "STRING"},
		"effect":     map[string]interface{}{"type": "STRING"},
		"originWord": map[string]interface{}{"type": "STRING"},
		"rarity":     map[string]interface{}{"type": "STRING", "enum": []string{"Common", "Uncommon", "Rare", "Mythic", "Gnostic", "Quantum", "Legacy", "Cinematic"}},
		"complexity": map[string]interface{}{"type": "NUMBER"},
	},
	"required": []string{"root", "power", "effect", "originWord", "rarity", "complexity"},
}

var enemySchema = map[string]interface{}{
	"type": "OBJECT",
	"properties": map[string]interface{}{
		"name":             map[string]interface{}{"type": "STRING"},
		"type":             map[string]interface{}{"type": "STRING", "enum": []string{"Stalker", "Weaver", "Bulwark", "Singularity", "Quantum-Phantom"}},
		"integrity":        map[string]interface{}{"type": "NUMBER"},
		"maxIntegrity":     map[string]interface{}{"type": "NUMBER"},
		"description":      map[string]interface{}{"type": "STRING"},
		"lexicalSignature": map[string]interface{}{"type": "STRING"},
		"weakness":         map[string]interface{}{"type": "STRING"},
		"isEntangled":      map[string]interface{}{"type": "BOOLEAN"},
	},
	"required": []string{"name", "type", "integrity", "maxIntegrity", "description", "lexicalSignature"},
}

var gameSchema = map[string]interface{}{
	"type": "OBJECT",
	"properties": map[string]interface{}{
		"narration":        map[string]interface{}{"type": "STRING"},
		"choices":          map[string]interface{}{"type": "ARRAY", "items": map[string]interface{}{"type": "STRING"}},
		"memoryReferenced": map[string]interface{}{"type": "STRING"},
		"stateUpdate": map[string]interface{}{
			"type": "OBJECT",
			"properties": map[string]interface{}{
				"integrity":            map[string]interface{}{"type": "NUMBER"},
				"will":                 map[string]interface{}{"type": "NUMBER"},
				"enlightenment":        map[string]interface{}{"type": "NUMBER"},
				"static":               map[string]interface{}{"type": "NUMBER"},
				"probabilityAmplitude": map[string]interface{}{"type": "NUMBER"},
				"weirdnessSignature":   map[string]interface{}{"type": "NUMBER"},
				"threadCount":          map[string]interface{}{"type": "NUMBER"},
				"conceptionLevel":      map[string]interface{}{"type": "NUMBER"},
				"npcMemories":          map[string]interface{}{"type": "ARRAY", "items": map[string]interface{}{"type": "STRING"}},
				"morphemes":            map[string]interface{}{"type": "ARRAY", "items": morphemeSchema},
				"activeThreats":        map[string]interface{}{"type": "ARRAY", "items": enemySchema},
				"stash":                map[string]interface{}{"type": "ARRAY", "items": artifactSchema},
				"status":               map[string]interface{}{"type": "STRING", "enum": []string{"playing", "gameover", "start", "courtroom"}},
				"currentQuest":         map[string]interface{}{"type": "STRING"},
				"discoveredCanon":      map[string]interface{}{"type": "ARRAY", "items": canonEntrySchema},
			},
		},
		"imagePrompt": map[string]interface{}{"type": "STRING"},
		"harvestResults": map[string]interface{}{
			"type": "OBJECT",
			"properties": map[string]interface{}{
				"noveltyScore": map[string]interface{}{"type": "NUMBER"},
				"rarity":       map[string]interface{}{"type": "STRING"},
				"comment":      map[string]interface{}{"type": "STRING"},
				"artifact":     artifactSchema,
			},
		},
	},
	"required": []string{"narration", "choices", "stateUpdate", "imagePrompt"},
}
