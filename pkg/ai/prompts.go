package ai

// DefaultEntityTypes are the entity categories offered to the model
// when the caller does not supply their own.
var DefaultEntityTypes = []string{
	"ORGANIZATION", "PERSON", "LOCATION", "CONCEPT", "PRODUCT", "EVENT", "DATE", "CREATIVE_WORK",
}

// ExtractPrompt is the system prompt for entity/relationship
// extraction. It takes the comma-joined entity type list twice.
const ExtractPrompt = `
# Task Context
You are an expert at extracting entities and relationships from text to build a knowledge graph.

# Background Data
- **Entity_types:** [%s]

# Detailed Task Description & Rules

## Entity Extraction
1. Identify all entities that are explicitly mentioned or strongly implied in the text.
2. For each entity, extract:
   - **name:** A concise, standardized name for the entity.
   - **type:** One of the provided types [%s].
   - **description:** A comprehensive description of the entity's attributes, activities and information provided by the text. Do not omit explicit information.

## Relationship Extraction
1. Identify all relationships between the extracted entities.
2. For each relationship, extract:
   - **source:** Name of the source entity. Must match exactly a name from the entity list.
   - **target:** Name of the target entity. Must match exactly a name from the entity list.
   - **type:** A clear, descriptive relationship type (e.g. works_for, located_in, developed).
   - **description:** An explanation of why the source and target are related.

# Output Formatting
Return a JSON object with this structure:
{
  "entities": [
    {"name": "<entity name>", "type": "<entity type>", "description": "<description>"}
  ],
  "relationships": [
    {"source": "<source entity name>", "target": "<target entity name>", "type": "<relationship type>", "description": "<description>"}
  ]
}
Output must be valid JSON only (no commentary, no extra text).
`

// ExtractCorrectionPrompt is appended to the system prompt on retry
// after the model produced output that failed parsing or validation.
// It takes the validation failure reason.
const ExtractCorrectionPrompt = `
# Correction
Your previous output was invalid: %s
Fix the problem and resend the complete JSON object. Remember: every relationship's source and target must exactly match a name in the entities list, and the output must be valid JSON with no surrounding text.
`
