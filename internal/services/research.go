package services

import (
	"fmt"
	"strings"

	"bitcore/internal/logchannel"
	"bitcore/pkg/bittypes"
)

// ResearchService drives the research pipeline: it walks the stored
// memories and prompts for material related to the query, then asks the
// chat model for a synthesis. Telemetry events mark each stage so the
// WebSocket client can render progress. It implements
// bittypes.ResearchController.
type ResearchService struct {
	logger *logchannel.Logger
}

// NewResearchService creates the research service.
func NewResearchService() *ResearchService {
	return &ResearchService{logger: logchannel.Source("services.research")}
}

// Name returns "research".
func (r *ResearchService) Name() string {
	return "research"
}

// Initialize is a no-op; the service resolves its collaborators per run.
func (r *ResearchService) Initialize() error {
	return nil
}

// Run executes one research pass. tele may be nil.
func (r *ResearchService) Run(query string, tele bittypes.Telemetry) (bittypes.ResearchReport, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return bittypes.ResearchReport{}, bittypes.InputErrorf("research query is required")
	}

	emitStatus(tele, "gather", "collecting local material", map[string]any{"query": query})

	sources, material := r.gather(query)
	r.logger.Info("research material gathered", map[string]any{
		"query":   query,
		"sources": len(sources),
	})

	emitStatus(tele, "synthesize", "asking the model for a synthesis", nil)

	summary, err := r.synthesize(query, material)
	if err != nil {
		if tele != nil {
			tele.EmitComplete(false, map[string]any{"error": err.Error()})
		}
		return bittypes.ResearchReport{}, err
	}

	if tele != nil {
		tele.EmitThought(summary, "synthesize")
		tele.EmitComplete(true, map[string]any{"sources": len(sources)})
	}

	return bittypes.ResearchReport{
		Query:   query,
		Summary: summary,
		Sources: sources,
	}, nil
}

// gather collects memories and prompts matching the query. Both stores are
// optional at runtime; a missing store contributes nothing.
func (r *ResearchService) gather(query string) (sources []string, material []string) {
	if memory, err := GetMemoryService(); err == nil {
		if records, err := memory.Search(query); err == nil {
			for _, record := range records {
				sources = append(sources, "memory:"+record.ID)
				material = append(material, record.Text)
			}
		}
	}
	if prompts, err := GetPromptService(); err == nil {
		if names, err := prompts.List(); err == nil {
			needle := strings.ToLower(query)
			for _, name := range names {
				if !strings.Contains(strings.ToLower(name), needle) {
					continue
				}
				if content, err := prompts.Get(name); err == nil {
					sources = append(sources, "prompt:"+name)
					material = append(material, content)
				}
			}
		}
	}
	return sources, material
}

// synthesize asks the chat model to summarise the gathered material. The
// exchange runs on a throwaway session so it never pollutes the operator's
// transcript.
func (r *ResearchService) synthesize(query string, material []string) (string, error) {
	chat, err := GetChatService()
	if err != nil {
		return "", err
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Research request: %s\n\n", query)
	if len(material) > 0 {
		prompt.WriteString("Local material:\n")
		for _, item := range material {
			fmt.Fprintf(&prompt, "- %s\n", item)
		}
		prompt.WriteString("\n")
	}
	prompt.WriteString("Write a short research summary. Cite the local material where relevant.")

	scratch := bittypes.NewSession(bittypes.DefaultUser())
	return chat.Send(scratch, prompt.String())
}

func emitStatus(tele bittypes.Telemetry, stage, message string, detail map[string]any) {
	if tele != nil {
		tele.EmitStatus(stage, message, detail)
	}
}

// GetResearchService resolves the research service from the global registry.
func GetResearchService() (*ResearchService, error) {
	service, err := GetGlobalRegistry().GetService("research")
	if err != nil {
		return nil, err
	}
	research, ok := service.(*ResearchService)
	if !ok {
		return nil, fmt.Errorf("research service has incorrect type")
	}
	return research, nil
}
