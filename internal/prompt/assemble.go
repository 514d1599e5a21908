package prompt

import "strings"

// Assemble renders a config into the free-text system prompt. It is
// deterministic and total: the section order is fixed, a section is included
// only when its field is non-empty, and an empty config yields "".
func Assemble(cfg Config) string {
	var sections []string

	if cfg.Persona != "" {
		sections = append(sections, "Identity: "+cfg.Persona)
	}
	if cfg.Mission != "" {
		sections = append(sections, "Mission: "+cfg.Mission)
	}
	if len(cfg.Skills) > 0 {
		sections = append(sections, "Skills: You are proficient in "+strings.Join(cfg.Skills, ", ")+".")
	}
	if len(cfg.Boundaries) > 0 {
		sections = append(sections, "Boundaries:\n- "+strings.Join(cfg.Boundaries, "\n- "))
	}
	if cfg.Personality != "" {
		sections = append(sections, "Personality: Maintain a "+strings.ToLower(string(cfg.Personality))+" tone.")
	}
	if cfg.Format != "" {
		sections = append(sections, "Format: "+cfg.Format)
	}
	if cfg.Reference != "" {
		sections = append(sections, "Reference Context:\n---\n"+cfg.Reference+"\n---")
	}

	return strings.Join(sections, "\n\n")
}
