package prompt

// Personality is the interaction tone an agent should maintain.
type Personality string

const (
	PersonalityProfessional Personality = "Professional"
	PersonalityCasual       Personality = "Casual"
	PersonalityEnthusiastic Personality = "Enthusiastic"
	PersonalityFormal       Personality = "Formal"
)

// Config is the structured representation of a system prompt.
type Config struct {
	Persona     string      `json:"persona" yaml:"persona"`
	Mission     string      `json:"mission" yaml:"mission"`
	Skills      []string    `json:"skills" yaml:"skills"`
	Boundaries  []string    `json:"boundaries" yaml:"boundaries"`
	Personality Personality `json:"personality" yaml:"personality"`
	Format      string      `json:"format" yaml:"format"`
	Reference   string      `json:"reference" yaml:"reference"`
}

// DefaultConfig returns the config new prompts start from.
func DefaultConfig() Config {
	return Config{
		Persona:     "Helpful Assistant",
		Personality: PersonalityProfessional,
	}
}

// NormalizePersonality coerces any externally supplied value to one of the
// four allowed personalities. The comparison is case-sensitive: anything that
// is not an exact match falls back to Professional.
func NormalizePersonality(p Personality) Personality {
	switch p {
	case PersonalityProfessional, PersonalityCasual, PersonalityEnthusiastic, PersonalityFormal:
		return p
	default:
		return PersonalityProfessional
	}
}

// Normalized returns a copy of the config with the personality coerced into
// the allowed set.
func (c Config) Normalized() Config {
	c.Personality = NormalizePersonality(c.Personality)
	return c
}
