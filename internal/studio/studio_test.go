package studio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kayz/promptcraft/internal/ai"
	"github.com/kayz/promptcraft/internal/prompt"
)

// fakeStore is an in-memory Store used by the editor and manager tests.
// Set failNext to make the next call fail before applying anything.
type fakeStore struct {
	libraries []Library
	prompts   map[string]*Prompt
	nextID    int
	failNext  bool
	writes    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{prompts: make(map[string]*Prompt)}
}

func (s *fakeStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *fakeStore) fail(op string) error {
	if s.failNext {
		s.failNext = false
		return &PersistenceError{Op: op, Err: errors.New("store unavailable")}
	}
	return nil
}

func (s *fakeStore) Libraries(_ context.Context) ([]Library, error) {
	if err := s.fail("list libraries"); err != nil {
		return nil, err
	}
	out := make([]Library, len(s.libraries))
	copy(out, s.libraries)
	return out, nil
}

func (s *fakeStore) CreateLibrary(_ context.Context, name string) (*Library, error) {
	if err := s.fail("create library"); err != nil {
		return nil, err
	}
	s.writes++
	lib := Library{ID: s.id("lib"), Name: name, CreatedAt: time.Now()}
	s.libraries = append(s.libraries, lib)
	return &lib, nil
}

func (s *fakeStore) RenameLibrary(_ context.Context, id, name string) error {
	if err := s.fail("rename library"); err != nil {
		return err
	}
	s.writes++
	for i := range s.libraries {
		if s.libraries[i].ID == id {
			s.libraries[i].Name = name
			return nil
		}
	}
	return &PersistenceError{Op: "rename library", Err: errors.New("no such row")}
}

func (s *fakeStore) DeleteLibrary(_ context.Context, id string) error {
	if err := s.fail("delete library"); err != nil {
		return err
	}
	s.writes++
	for i := range s.libraries {
		if s.libraries[i].ID == id {
			s.libraries = append(s.libraries[:i], s.libraries[i+1:]...)
			return nil
		}
	}
	return &PersistenceError{Op: "delete library", Err: errors.New("no such row")}
}

func (s *fakeStore) CreateTemplate(_ context.Context, libraryID, usecase, text string) (*Template, error) {
	if err := s.fail("create template"); err != nil {
		return nil, err
	}
	s.writes++
	for i := range s.libraries {
		if s.libraries[i].ID == libraryID {
			tmpl := Template{ID: s.id("tmpl"), LibraryID: libraryID, Usecase: usecase, Text: text}
			s.libraries[i].Templates = append(s.libraries[i].Templates, tmpl)
			return &tmpl, nil
		}
	}
	return nil, &PersistenceError{Op: "create template", Err: errors.New("no such library")}
}

func (s *fakeStore) UpdateTemplate(_ context.Context, id, usecase, text string) error {
	if err := s.fail("update template"); err != nil {
		return err
	}
	s.writes++
	for i := range s.libraries {
		for j := range s.libraries[i].Templates {
			if s.libraries[i].Templates[j].ID == id {
				s.libraries[i].Templates[j].Usecase = usecase
				s.libraries[i].Templates[j].Text = text
				return nil
			}
		}
	}
	return &PersistenceError{Op: "update template", Err: errors.New("no such row")}
}

func (s *fakeStore) DeleteTemplate(_ context.Context, id string) error {
	if err := s.fail("delete template"); err != nil {
		return err
	}
	s.writes++
	for i := range s.libraries {
		for j := range s.libraries[i].Templates {
			if s.libraries[i].Templates[j].ID == id {
				s.libraries[i].Templates = append(s.libraries[i].Templates[:j], s.libraries[i].Templates[j+1:]...)
				return nil
			}
		}
	}
	return &PersistenceError{Op: "delete template", Err: errors.New("no such row")}
}

func (s *fakeStore) CreatePrompt(_ context.Context, libraryID, name, systemPrompt string, cfg prompt.Config) (*Prompt, error) {
	if err := s.fail("create prompt"); err != nil {
		return nil, err
	}
	s.writes++
	p := &Prompt{
		ID:           s.id("prompt"),
		LibraryID:    libraryID,
		Name:         name,
		SystemPrompt: systemPrompt,
		Config:       cfg,
		CreatedAt:    time.Now(),
	}
	p.Versions = []Version{{
		ID:        s.id("ver"),
		PromptID:  p.ID,
		Text:      systemPrompt,
		CreatedAt: time.Now(),
	}}
	s.prompts[p.ID] = p
	return clonePrompt(p), nil
}

func (s *fakeStore) GetPrompt(_ context.Context, id string) (*Prompt, error) {
	if err := s.fail("get prompt"); err != nil {
		return nil, err
	}
	p, ok := s.prompts[id]
	if !ok {
		return nil, &NotFoundError{Kind: "prompt", Name: id}
	}
	return clonePrompt(p), nil
}

func (s *fakeStore) UpdatePrompt(_ context.Context, id, systemPrompt string, cfg prompt.Config) error {
	if err := s.fail("update prompt"); err != nil {
		return err
	}
	s.writes++
	p, ok := s.prompts[id]
	if !ok {
		return &PersistenceError{Op: "update prompt", Err: errors.New("no such row")}
	}
	p.SystemPrompt = systemPrompt
	p.Config = cfg
	return nil
}

func (s *fakeStore) DeletePrompt(_ context.Context, id string) error {
	if err := s.fail("delete prompt"); err != nil {
		return err
	}
	s.writes++
	delete(s.prompts, id)
	return nil
}

func (s *fakeStore) AddVersion(_ context.Context, promptID, text string, tag VersionTag) (*Version, error) {
	if err := s.fail("add version"); err != nil {
		return nil, err
	}
	s.writes++
	p, ok := s.prompts[promptID]
	if !ok {
		return nil, &PersistenceError{Op: "add version", Err: errors.New("no such prompt")}
	}
	v := Version{ID: s.id("ver"), PromptID: promptID, Text: text, Tag: tag, CreatedAt: time.Now()}
	p.Versions = append([]Version{v}, p.Versions...)
	return &v, nil
}

func (s *fakeStore) DeleteVersion(_ context.Context, id string) error {
	if err := s.fail("delete version"); err != nil {
		return err
	}
	s.writes++
	for _, p := range s.prompts {
		for i := range p.Versions {
			if p.Versions[i].ID == id {
				p.Versions = append(p.Versions[:i], p.Versions[i+1:]...)
				return nil
			}
		}
	}
	return &PersistenceError{Op: "delete version", Err: errors.New("no such row")}
}

func clonePrompt(p *Prompt) *Prompt {
	cp := *p
	cp.Versions = append([]Version(nil), p.Versions...)
	return &cp
}

// fakeParser returns a fixed config or error.
type fakeParser struct {
	cfg prompt.Config
	err error
}

func (p *fakeParser) ParseConfig(_ context.Context, _ string) (prompt.Config, error) {
	return p.cfg, p.err
}

// fakeStreamer replays canned fragments and records what it was asked.
type fakeStreamer struct {
	fragments   []string
	lastSystem  string
	lastHistory []ai.Message
	lastMessage string
}

func (f *fakeStreamer) StreamChat(_ context.Context, systemPrompt string, history []ai.Message, message string) <-chan string {
	f.lastSystem = systemPrompt
	f.lastHistory = append([]ai.Message(nil), history...)
	f.lastMessage = message

	out := make(chan string)
	go func() {
		defer close(out)
		for _, frag := range f.fragments {
			out <- frag
		}
	}()
	return out
}
