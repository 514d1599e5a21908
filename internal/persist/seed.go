package persist

import "context"

type seedTemplate struct {
	usecase string
	text    string
}

type seedLibrary struct {
	name      string
	templates []seedTemplate
}

var starterLibraries = []seedLibrary{
	{
		name: "General AI",
		templates: []seedTemplate{
			{
				usecase: "Brainstorm Ideas",
				text:    "You are a creative assistant. Brainstorm a list of 10 ideas for a new mobile application in the productivity space. For each idea, provide a brief description and a potential target audience.",
			},
			{
				usecase: "Summarize Text",
				text:    "You are an expert summarizer. Read the following article and provide a concise summary of the key points in three bullet points. Article: [Paste article text here]",
			},
		},
	},
	{
		name: "Marketing",
		templates: []seedTemplate{
			{
				usecase: "Write Ad Copy",
				text:    "You are a professional copywriter. Write three versions of ad copy for a new brand of sustainable coffee. The target audience is millennials who are environmentally conscious. The tone should be upbeat and inspiring.",
			},
			{
				usecase: "Social Media Post",
				text:    "You are a social media manager. Create an engaging Instagram post for a new line of sneakers. Include a catchy caption, relevant hashtags, and a call to action.",
			},
		},
	},
	{
		name: "Software Engineering",
		templates: []seedTemplate{
			{
				usecase: "Explain Code",
				text:    "You are a senior software engineer with excellent communication skills. Explain the following code snippet to a junior developer. Focus on the logic and the purpose of the code. Code: [Paste code snippet here]",
			},
			{
				usecase: "Generate Documentation",
				text:    "You are a technical writer. Generate markdown documentation for the following API endpoint. Include the endpoint URL, HTTP method, request parameters, and an example response. Endpoint details: [Paste details here]",
			},
		},
	},
}

// Seed populates the starter categories on an empty database. It is a no-op
// once any library exists, so user deletions of starter content stick.
func (s *Store) Seed(ctx context.Context) error {
	s.mu.RLock()
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM libraries`).Scan(&count)
	s.mu.RUnlock()
	if err != nil {
		return persistErr("seed", err)
	}
	if count > 0 {
		return nil
	}

	for _, lib := range starterLibraries {
		created, err := s.CreateLibrary(ctx, lib.name)
		if err != nil {
			return err
		}
		for _, tmpl := range lib.templates {
			if _, err := s.CreateTemplate(ctx, created.ID, tmpl.usecase, tmpl.text); err != nil {
				return err
			}
		}
	}
	return nil
}
