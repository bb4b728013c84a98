package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/soarlabs/soar/internal/domain"
)

// Contradiction scanning constants
const (
	DefaultMaxClaims         = 20
	DefaultRecordThreshold   = 0.4  // Minimum final score to record a contradiction
	EscalationThreshold      = 0.25 // Heuristic score that justifies a generator call
	TopicalOverlapGate       = 0.15 // Below this, claims cannot contradict
	TemporalOverlapGate      = 0.3  // Overlap needed before temporal asymmetry matters
	MinClaimLength           = 20
	MaxClaimLength           = 500
	NegationAsymmetryScore   = 0.4
	AntonymPairScore         = 0.3
	TemporalAsymmetryScore   = 0.15
	QuantifierMismatchScore  = 0.2
	EscalationWorkers        = 4
	EscalationCallsPerSecond = 2.0
	EscalationBurst          = EscalationWorkers
	escalationCallTimeout    = 60 * time.Second
)

// verbMarkers gate claim extraction: a sentence with none of these is unlikely
// to assert anything checkable.
var verbMarkers = []string{
	"is", "are", "was", "were", "has", "have", "had", "does", "do", "did",
	"can", "cannot", "will", "would", "may", "must", "shows", "showed",
	"suggests", "suggested", "indicates", "indicated", "demonstrates",
	"causes", "caused", "increases", "increased", "decreases", "decreased",
	"reduces", "reduced", "improves", "improved", "prevents", "prevented",
	"leads", "led", "results", "resulted", "found", "reported", "concluded",
	"remains", "appears", "supports", "refutes",
}

var negationMarkers = []string{
	"not", "no", "never", "cannot", "don't", "doesn't", "didn't", "won't",
	"isn't", "aren't", "wasn't", "weren't", "fails to", "lacks", "without",
}

// antonymPairs flag likely factual disagreement when one claim carries one
// side and the other claim the opposite.
var antonymPairs = [][2]string{
	{"increase", "decrease"},
	{"increases", "decreases"},
	{"increased", "decreased"},
	{"strong", "weak"},
	{"valid", "invalid"},
	{"effective", "ineffective"},
	{"safe", "unsafe"},
	{"positive", "negative"},
	{"higher", "lower"},
	{"improves", "worsens"},
	{"supports", "refutes"},
	{"confirms", "contradicts"},
	{"significant", "insignificant"},
}

var temporalMarkers = []string{
	"before", "after", "previously", "currently", "now", "formerly",
	"initially", "eventually", "no longer", "used to", "historically",
}

var universalQuantifiers = []string{"all ", "every ", "always ", "none ", "never "}
var particularQuantifiers = []string{"some ", "many ", "few ", "sometimes ", "occasionally ", "most "}

var methodVocabulary = []string{
	"study", "studies", "trial", "sample", "method", "methodology", "data",
	"measurement", "survey", "experiment", "rct", "cohort", "meta-analysis",
}

// ContradictionScanner measures dissonance directly by comparing every pair of
// claims extracted from an analysis. A zero-cost heuristic scores all pairs;
// only plausible pairs escalate to the generator, rate-limited and bounded in
// flight so the quadratic stage stays cheap.
type ContradictionScanner struct {
	generator domain.Generator
	logger    *zap.Logger
	limiter   *rate.Limiter
	workers   int
}

func NewContradictionScanner(generator domain.Generator, logger *zap.Logger) *ContradictionScanner {
	return &ContradictionScanner{
		generator: generator,
		logger:    logger,
		limiter:   rate.NewLimiter(rate.Limit(EscalationCallsPerSecond), EscalationBurst),
		workers:   EscalationWorkers,
	}
}

// pairScore is the heuristic verdict on one unordered claim pair.
type pairScore struct {
	indexA, indexB int
	score          float64
	kind           domain.ContradictionType
	explanation    string
}

// Scan extracts claims from text and runs the all-pairs contradiction check.
// It never aborts on a failed escalation call; the heuristic score stands in.
func (s *ContradictionScanner) Scan(ctx context.Context, text string, maxClaims int, recordThreshold float64) (*domain.ContradictionScan, error) {
	start := time.Now()
	if maxClaims <= 0 {
		maxClaims = DefaultMaxClaims
	}
	if recordThreshold <= 0 {
		recordThreshold = DefaultRecordThreshold
	}

	claims := extractClaims(text, maxClaims)
	n := len(claims)

	scan := &domain.ContradictionScan{
		TotalClaims:      n,
		TotalComparisons: n * (n - 1) / 2,
		Contradictions:   []domain.Contradiction{},
	}

	// Heuristic tier: every unordered pair, no I/O.
	var candidates []pairScore
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			ps := scorePair(claims[i], claims[j])
			ps.indexA, ps.indexB = i, j
			if ps.score > 0 {
				candidates = append(candidates, ps)
			}
		}
	}

	// Escalation tier: generator-backed verdicts for plausible pairs only.
	if s.generator != nil {
		s.escalate(ctx, claims, candidates)
	}

	for _, ps := range candidates {
		if ps.score < recordThreshold {
			continue
		}
		scan.Contradictions = append(scan.Contradictions, domain.Contradiction{
			ID:          uuid.New(),
			ClaimA:      claims[ps.indexA],
			SourceA:     ps.indexA,
			ClaimB:      claims[ps.indexB],
			SourceB:     ps.indexB,
			Confidence:  ps.score,
			Type:        ps.kind,
			Explanation: ps.explanation,
			DetectedAt:  time.Now().UTC(),
		})
	}

	total := 0.0
	for _, c := range scan.Contradictions {
		total += c.Confidence
	}
	divisor := float64(scan.TotalClaims)
	if divisor < 1 {
		divisor = 1
	}
	dissonance := total / divisor
	if dissonance > 1 {
		dissonance = 1
	}
	scan.ComputedDissonance = dissonance
	scan.DurationMs = time.Since(start).Milliseconds()

	s.logger.Debug("contradiction scan complete",
		zap.Int("claims", scan.TotalClaims),
		zap.Int("comparisons", scan.TotalComparisons),
		zap.Int("contradictions", len(scan.Contradictions)),
		zap.Float64("computed_dissonance", scan.ComputedDissonance))

	return scan, nil
}

// escalate runs generator verification over candidate pairs above the
// escalation threshold, bounded by a worker pool and a rate limiter. Failed
// calls fall back silently to the heuristic score for that pair.
func (s *ContradictionScanner) escalate(ctx context.Context, claims []string, candidates []pairScore) {
	type job struct{ idx int }
	jobs := make(chan job)

	var wg sync.WaitGroup
	var mu sync.Mutex

	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				ps := candidates[j.idx]
				verdict := s.verifyPair(ctx, claims[ps.indexA], claims[ps.indexB])
				if verdict == nil {
					continue
				}
				mu.Lock()
				if verdict.Contradicts {
					candidates[j.idx].score = verdict.Confidence
					if domain.ValidContradictionType(string(verdict.Type)) {
						candidates[j.idx].kind = verdict.Type
					}
					if verdict.Explanation != "" {
						candidates[j.idx].explanation = verdict.Explanation
					}
				} else {
					candidates[j.idx].score = 0
				}
				mu.Unlock()
			}
		}()
	}

	for i := range candidates {
		if candidates[i].score <= EscalationThreshold {
			continue
		}
		select {
		case jobs <- job{idx: i}:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		}
	}
	close(jobs)
	wg.Wait()
}

func (s *ContradictionScanner) verifyPair(ctx context.Context, claimA, claimB string) *domain.ContradictionVerdict {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, escalationCallTimeout)
	defer cancel()

	verdict, err := s.generator.VerifyContradiction(callCtx, claimA, claimB)
	if err != nil {
		s.logger.Warn("contradiction verification failed, keeping heuristic score", zap.Error(err))
		return nil
	}
	return verdict
}

// extractClaims splits text into sentences and keeps the ones that plausibly
// assert something: bounded length, not a question/heading/citation, and at
// least one verb-like token.
func extractClaims(text string, maxClaims int) []string {
	sentences := splitSentences(text)

	var claims []string
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < MinClaimLength || len(sentence) > MaxClaimLength {
			continue
		}
		if strings.HasSuffix(sentence, "?") || strings.HasPrefix(sentence, "#") ||
			strings.HasPrefix(sentence, "[") || strings.HasPrefix(sentence, "Note:") {
			continue
		}
		if !containsVerbMarker(sentence) {
			continue
		}
		claims = append(claims, sentence)
		if len(claims) >= maxClaims {
			break
		}
	}
	return claims
}

func splitSentences(text string) []string {
	var sentences []string
	var sb strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		sb.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			atEnd := i == len(runes)-1
			if atEnd || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				sentences = append(sentences, sb.String())
				sb.Reset()
			}
		}
	}
	if sb.Len() > 0 {
		sentences = append(sentences, sb.String())
	}
	return sentences
}

func containsVerbMarker(sentence string) bool {
	words := tokenize(sentence)
	for _, w := range words {
		for _, marker := range verbMarkers {
			if w == marker {
				return true
			}
		}
	}
	return false
}

// scorePair runs the zero-cost heuristic over one claim pair. Pairs with no
// topical overlap score zero regardless of other patterns: unrelated claims
// cannot contradict.
func scorePair(claimA, claimB string) pairScore {
	wordsA := contentWords(claimA)
	wordsB := contentWords(claimB)

	overlap := jaccard(wordsA, wordsB)
	if overlap < TopicalOverlapGate {
		return pairScore{}
	}

	lowerA := " " + strings.ToLower(claimA) + " "
	lowerB := " " + strings.ToLower(claimB) + " "

	ps := pairScore{kind: domain.ContradictionLogical}
	var reasons []string

	negA := containsAnyMarker(lowerA, negationMarkers)
	negB := containsAnyMarker(lowerB, negationMarkers)
	if negA != negB {
		ps.score += NegationAsymmetryScore
		reasons = append(reasons, "one claim negated")
	}

	for _, pair := range antonymPairs {
		forward := strings.Contains(lowerA, " "+pair[0]) && strings.Contains(lowerB, " "+pair[1])
		backward := strings.Contains(lowerA, " "+pair[1]) && strings.Contains(lowerB, " "+pair[0])
		if forward || backward {
			ps.score += AntonymPairScore
			ps.kind = domain.ContradictionFactual
			reasons = append(reasons, "opposing terms ("+pair[0]+"/"+pair[1]+")")
			break
		}
	}

	if overlap >= TemporalOverlapGate {
		tempA := containsAnyMarker(lowerA, temporalMarkers)
		tempB := containsAnyMarker(lowerB, temporalMarkers)
		if tempA != tempB {
			ps.score += TemporalAsymmetryScore
			if ps.kind == domain.ContradictionLogical {
				ps.kind = domain.ContradictionTemporal
			}
			reasons = append(reasons, "temporal marker on one side")
		}
	}

	uniA := containsAnyMarker(lowerA, universalQuantifiers)
	uniB := containsAnyMarker(lowerB, universalQuantifiers)
	partA := containsAnyMarker(lowerA, particularQuantifiers)
	partB := containsAnyMarker(lowerB, particularQuantifiers)
	if (uniA && partB) || (uniB && partA) {
		ps.score += QuantifierMismatchScore
		if ps.kind == domain.ContradictionLogical {
			ps.kind = domain.ContradictionScope
		}
		reasons = append(reasons, "universal vs particular quantifier")
	}

	if ps.score > 0 &&
		containsAnyMarker(lowerA, methodVocabulary) &&
		containsAnyMarker(lowerB, methodVocabulary) {
		ps.kind = domain.ContradictionMethodological
		reasons = append(reasons, "both reference empirical method")
	}

	if ps.score > 1 {
		ps.score = 1
	}
	if len(reasons) > 0 {
		ps.explanation = "topical overlap " + formatOverlap(overlap) + "; " + strings.Join(reasons, "; ")
	}
	return ps
}

func containsAnyMarker(padded string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(padded, " "+m) {
			return true
		}
	}
	return false
}

func formatOverlap(v float64) string {
	switch {
	case v >= 0.6:
		return "high"
	case v >= 0.3:
		return "moderate"
	default:
		return "low"
	}
}
