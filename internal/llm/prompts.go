package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soarlabs/soar/internal/domain"
)

const curriculumPrompt = `You are a curriculum teacher inside a meta-reasoning system. A student model is struggling with a hard target query. Design up to %d "stepping stone" sub-questions that exercise the skills needed for the target, ordered from easier to harder.

Target query: %s
Domain: %s
Question type: %s
Iteration: %d
%s
Rules:
- Each stone must be meaningfully easier than the target.
- Each stone must be distinct from the target; do not paraphrase it.
- relative_difficulty is in [0,1] relative to the target (1.0 = as hard as the target).

Respond ONLY with JSON, no markdown fences:
{"rationale":"one sentence on the teaching strategy","stones":[{"question":"...","target_skill":"...","relative_difficulty":0.4}]}`

const stonePrompt = `You are a student working through a curriculum of stepping-stone questions before re-attempting a hard target query.

Target query (for orientation only, do not answer it): %s
%s
Current stepping stone: %s

Answer the stepping stone concisely, building on the earlier steps where relevant. Then self-assess.

Respond ONLY with JSON, no markdown fences:
{"answer":"...","confidence":0.0,"entropy":0.0}
confidence: how sure you are of the answer (0-1). entropy: how scattered/uncertain your reasoning felt (0-1).`

const targetPrompt = `You are a student re-attempting a hard target query after working through stepping-stone questions.

Target query: %s
Domain: %s
Question type: %s

Stepping-stone context:
%s
Write your best full analysis of the target query, using the stepping-stone context. Then self-assess.

Respond ONLY with JSON, no markdown fences:
{"analysis":"...","confidence":0.0,"entropy":0.0,"dissonance":0.0}
confidence: 0-1. entropy: how scattered the reasoning is, 0-1. dissonance: how much internal tension the analysis contains, 0-1.`

const verifyContradictionPrompt = `Do these two claims from the same analysis contradict each other?

Claim A: %s
Claim B: %s

Respond ONLY with JSON, no markdown fences:
{"contradicts":false,"confidence":0.0,"type":"factual|logical|temporal|scope|methodological","explanation":"brief reason"}`

func buildCurriculumPrompt(req domain.CurriculumRequest) string {
	feedback := ""
	if req.PreviousImproved != nil {
		if *req.PreviousImproved {
			feedback = fmt.Sprintf("Previous iteration improved the result (reward %.3f). Deepen the same line of attack.\n", req.PreviousComposite)
		} else {
			feedback = fmt.Sprintf("Previous iteration did NOT improve the result (reward %.3f). Shift strategy: change the skill angle and difficulty rather than reissuing a similar curriculum.\n", req.PreviousComposite)
		}
	}
	return fmt.Sprintf(curriculumPrompt, req.MaxStones, req.TargetQuery, req.Domain, req.QuestionType, req.Iteration, feedback)
}

func buildStonePrompt(req domain.StoneRequest) string {
	var sb strings.Builder
	if len(req.Prior) > 0 {
		sb.WriteString("Earlier steps this iteration:\n")
		for i, p := range req.Prior {
			sb.WriteString(fmt.Sprintf("%d. Q: %s\n   A: %s\n", i+1, p.Question, p.Answer))
		}
	} else {
		sb.WriteString("This is the first stepping stone of the iteration.\n")
	}
	return fmt.Sprintf(stonePrompt, req.TargetQuery, sb.String(), req.Question)
}

func buildTargetPrompt(req domain.TargetRequest) string {
	var sb strings.Builder
	if len(req.Stones) == 0 {
		sb.WriteString("(no stepping stones were completed)\n")
	}
	for i, p := range req.Stones {
		sb.WriteString(fmt.Sprintf("%d. Q: %s\n   A: %s\n", i+1, p.Question, p.Answer))
	}
	return fmt.Sprintf(targetPrompt, req.Query, req.Domain, req.QuestionType, sb.String())
}

// stripFences removes markdown code fences LLMs like to wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func parseCurriculum(raw string) (*domain.CurriculumDraft, error) {
	raw = stripFences(raw)
	var draft domain.CurriculumDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("%w: parse curriculum: %v (raw: %s)", domain.ErrGeneratorResponse, err, raw)
	}
	if len(draft.Stones) == 0 {
		return nil, fmt.Errorf("%w: curriculum has no stones", domain.ErrGeneratorResponse)
	}
	return &draft, nil
}

func parseStoneResult(raw string) (*domain.StoneResult, error) {
	raw = stripFences(raw)
	var result domain.StoneResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: parse stone result: %v (raw: %s)", domain.ErrGeneratorResponse, err, raw)
	}
	if strings.TrimSpace(result.Answer) == "" {
		return nil, fmt.Errorf("%w: stone result has no answer", domain.ErrGeneratorResponse)
	}
	return &result, nil
}

func parseTargetResult(raw string) (*domain.TargetResult, error) {
	raw = stripFences(raw)
	var result domain.TargetResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: parse target result: %v (raw: %s)", domain.ErrGeneratorResponse, err, raw)
	}
	if strings.TrimSpace(result.Analysis) == "" {
		return nil, fmt.Errorf("%w: target result has no analysis", domain.ErrGeneratorResponse)
	}
	return &result, nil
}

func parseVerdict(raw string) (*domain.ContradictionVerdict, error) {
	raw = stripFences(raw)
	var verdict domain.ContradictionVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return nil, fmt.Errorf("%w: parse contradiction verdict: %v (raw: %s)", domain.ErrGeneratorResponse, err, raw)
	}
	if !domain.ValidContradictionType(string(verdict.Type)) {
		verdict.Type = domain.ContradictionLogical
	}
	return &verdict, nil
}
