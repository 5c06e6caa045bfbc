package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/medatlas-labs/medcode-cli/internal/core/domain"
)

// Horizontal rules matching the classic 80-column report layout.
var (
	heavyRule = strings.Repeat("=", 80)
	lightRule = strings.Repeat("-", 80)
)

// renderStyles contains pre-configured lipgloss styles for terminal output.
type renderStyles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	High    lipgloss.Style
	Medium  lipgloss.Style
	Low     lipgloss.Style
	VeryLow lipgloss.Style
}

// styles is rebuilt on every run from the display configuration and the
// --no-color flag.
var styles = newRenderStyles(true)

func newRenderStyles(color bool) *renderStyles {
	if !color {
		plain := lipgloss.NewStyle()
		return &renderStyles{
			Title: plain, Muted: plain, Success: plain, Warning: plain,
			Error: plain, High: plain, Medium: plain, Low: plain, VeryLow: plain,
		}
	}

	return &renderStyles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
		High:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1")),
		Medium:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		Low:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FAB387")),
		VeryLow: lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
	}
}

// tier returns the style for a relevance tier badge.
func (s *renderStyles) tier(t domain.RelevanceTier) lipgloss.Style {
	switch t {
	case domain.TierHigh:
		return s.High
	case domain.TierMedium:
		return s.Medium
	case domain.TierLow:
		return s.Low
	default:
		return s.VeryLow
	}
}

// renderResponse formats a full lookup answer: header, search metrics,
// iteration history, synthesis, the per-system code listing and the
// advisory footer.
func renderResponse(resp *domain.LookupResponse, display domain.DisplayConfig) string {
	var b strings.Builder

	// Header.
	b.WriteString(heavyRule + "\n")
	fmt.Fprintf(&b, "Query: %s\n", resp.Query)
	fmt.Fprintf(&b, "Term Type: %s\n", resp.Classification.TermType)
	if resp.CacheSource {
		fmt.Fprintf(&b, "Source: Cached results (age: %s)\n", formatCacheAge(resp.CacheAge))
		b.WriteString(styles.Muted.Render("Note: No API calls or LLM processing - instant retrieval") + "\n")
	}
	fmt.Fprintf(&b, "Confidence: %.2f%%\n", resp.Classification.Confidence*100)
	fmt.Fprintf(&b, "Reasoning: %s\n", resp.Classification.Rationale)
	b.WriteString(heavyRule + "\n\n")

	renderMetrics(&b, resp)

	if display.ShowIterations && len(resp.Iterations) > 1 {
		b.WriteString(styles.Title.Render("ITERATION HISTORY") + "\n")
		b.WriteString(lightRule + "\n")
		for _, it := range resp.Iterations {
			fmt.Fprintf(&b, "  Iteration %d: %d matches, quality=%.2f, avg_relevance=%.2f\n",
				it.Index, it.ResultCount, it.QualityScore, it.MeanRelevance)
		}
		b.WriteString("\n")
	}

	if display.ShowSynthesis && resp.Synthesis != nil {
		b.WriteString(renderSynthesis(resp.Synthesis, display))
		b.WriteString("\n")
	}

	renderCodeGroups(&b, resp.DatasetOrder(), resp.Results, resp.Pages, display)
	renderDatasetErrors(&b, resp.DatasetErrors)

	if resp.HasMore {
		b.WriteString("\n")
		b.WriteString(styles.Success.Render("TIP: More results available!") + "\n")
		b.WriteString("     Type 'more', 'next', or 'show more' to see additional codes.\n")
	}

	b.WriteString("\n" + advisoryFooter() + "\n")
	return b.String()
}

// renderPageView formats a continuation page. No metrics or synthesis here:
// those belong to the first page of an answer.
func renderPageView(page *domain.PageView, display domain.DisplayConfig) string {
	var b strings.Builder

	b.WriteString(heavyRule + "\n")
	fmt.Fprintf(&b, "Query: %s (CONTINUED - Page %d)\n", page.Query, page.Page)
	fmt.Fprintf(&b, "Showing %d more codes...\n", page.TotalShown)
	b.WriteString(heavyRule + "\n\n")

	order := make([]domain.DatasetID, 0, len(page.Results))
	for id := range page.Results {
		order = append(order, id)
	}
	sortDatasetsByTopRelevance(order, page.Results)

	renderCodeGroups(&b, order, page.Results, page.Pages, display)

	if page.HasMore {
		b.WriteString("\n")
		b.WriteString(styles.Success.Render("TIP: More results available!") + "\n")
		b.WriteString("     Type 'more', 'next', or 'show more' to see additional codes.\n")
	}

	return b.String()
}

// renderMetrics writes the search metrics block.
func renderMetrics(b *strings.Builder, resp *domain.LookupResponse) {
	b.WriteString(styles.Title.Render("SEARCH METRICS") + "\n")
	b.WriteString(lightRule + "\n")

	if len(resp.Classification.Datasets) > 0 {
		names := make([]string, len(resp.Classification.Datasets))
		for i, id := range resp.Classification.Datasets {
			names[i] = datasetName(id)
		}
		fmt.Fprintf(b, "  Dataset Selection: %d systems chosen for term type '%s'\n",
			len(names), resp.Classification.TermType)
		fmt.Fprintf(b, "  Selected Systems: %s\n", strings.Join(names, ", "))
	}

	fmt.Fprintf(b, "  Iterations Performed: %d\n", resp.Quality.IterationCount)
	fmt.Fprintf(b, "  Result Quality Score: %.2f%%\n", resp.Quality.Score*100)
	fmt.Fprintf(b, "  Total Matches: %d\n", resp.Quality.ResultCount)
	fmt.Fprintf(b, "  Average Relevance: %.2f%%\n", resp.Quality.MeanRelevance*100)
	fmt.Fprintf(b, "  High Quality Results: %d\n", resp.Quality.HighQualityCount)
	if resp.Quality.LowConfidence {
		b.WriteString("  " + styles.Warning.Render("Note: Low confidence - refinement budget exhausted below the acceptance threshold") + "\n")
	}
	b.WriteString("\n")
}

// renderCodeGroups writes the per-system code listing. Results are capped
// at the page size even when the response carries the full result set.
func renderCodeGroups(b *strings.Builder, order []domain.DatasetID, results map[domain.DatasetID][]domain.ScoredResult, pages map[domain.DatasetID]domain.PageInfo, display domain.DisplayConfig) {
	if len(results) == 0 {
		b.WriteString("No codes found in any coding system.\n")
		return
	}

	plural := "s"
	if len(results) == 1 {
		plural = ""
	}
	fmt.Fprintf(b, "%s\n", styles.Title.Render(fmt.Sprintf("DETAILED CODES (%d coding system%s)", len(results), plural)))
	b.WriteString(heavyRule + "\n\n")

	for _, id := range order {
		codes := results[id]
		if len(codes) == 0 {
			continue
		}

		name := datasetName(id)
		if info, ok := pages[id]; ok {
			fmt.Fprintf(b, "%s (showing %d-%d of %d results)\n",
				styles.Title.Render(name), info.Start, info.End, info.Total)
		} else {
			fmt.Fprintf(b, "%s (%d results)\n", styles.Title.Render(name), len(codes))
		}
		b.WriteString(lightRule + "\n")

		limit := len(codes)
		if display.MaxCodesPerSystem > 0 && limit > display.MaxCodesPerSystem {
			limit = display.MaxCodesPerSystem
		}

		for i, code := range codes[:limit] {
			if display.ShowScores {
				badge := styles.tier(code.Tier).Render("[" + code.Tier.Label() + "]")
				fmt.Fprintf(b, "  %d. %s Code: %s (Relevance: %.2f)\n", i+1, badge, code.Code, code.Relevance)
			} else {
				fmt.Fprintf(b, "  %d. Code: %s\n", i+1, code.Code)
			}
			fmt.Fprintf(b, "     Description: %s\n\n", code.Description)
		}
	}
}

// renderDatasetErrors annotates datasets that could not be searched.
func renderDatasetErrors(b *strings.Builder, errs map[domain.DatasetID]string) {
	if len(errs) == 0 {
		return
	}

	b.WriteString(styles.Warning.Render("DATASET WARNINGS") + "\n")
	b.WriteString(lightRule + "\n")
	for _, id := range sortedDatasetIDs(errs) {
		fmt.Fprintf(b, "  - %s: %s\n", datasetName(id), errs[id])
	}
	b.WriteString("\n")
}

// renderSynthesis formats the synthesised reading of a result set.
func renderSynthesis(s *domain.Synthesis, display domain.DisplayConfig) string {
	var b strings.Builder

	title := "INTELLIGENT SYNTHESIS"
	if s.Fallback {
		title = "SYNTHESIS (rule-based)"
	}
	b.WriteString(heavyRule + "\n")
	b.WriteString(styles.Title.Render(title) + "\n")
	b.WriteString(heavyRule + "\n\n")

	b.WriteString(styles.Title.Render("EXECUTIVE SUMMARY") + "\n")
	b.WriteString(lightRule + "\n")
	b.WriteString(orDefault(s.ExecutiveSummary) + "\n\n")

	quality := strings.ToUpper(s.SearchQuality)
	if quality == "" {
		quality = "UNKNOWN"
	}
	fmt.Fprintf(&b, "SEARCH QUALITY: %s\n", searchQualityBadge(quality))
	fmt.Fprintf(&b, "   %s\n\n", orDefault(s.SearchQualityExplanation))

	b.WriteString(styles.Title.Render("KEY PATTERNS") + "\n")
	b.WriteString(lightRule + "\n")
	if len(s.KeyPatterns) == 0 {
		b.WriteString("  No data available\n")
	}
	for i, pattern := range s.KeyPatterns {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "  - %s\n", pattern)
	}
	b.WriteString("\n")

	b.WriteString(styles.Title.Render("TOP RECOMMENDATIONS") + "\n")
	b.WriteString(lightRule + "\n")
	if len(s.Recommendations) == 0 {
		b.WriteString("  No data available\n\n")
	}
	limit := len(s.Recommendations)
	if display.MaxRecommendations > 0 && limit > display.MaxRecommendations {
		limit = display.MaxRecommendations
	}
	for i, rec := range s.Recommendations[:limit] {
		fmt.Fprintf(&b, "  %d. [%s] %s\n", i+1, strings.ToUpper(rec.System), rec.Code)
		fmt.Fprintf(&b, "     Use Case: %s\n", orDefault(rec.UseCase))
		fmt.Fprintf(&b, "     Confidence: %s\n\n", confidenceBadge(rec.Confidence))
	}

	b.WriteString(styles.Title.Render("CLINICAL CONTEXT") + "\n")
	b.WriteString(lightRule + "\n")
	b.WriteString(orDefault(s.ClinicalContext) + "\n\n")

	b.WriteString(styles.Title.Render("NEXT STEPS") + "\n")
	b.WriteString(lightRule + "\n")
	if len(s.NextSteps) == 0 {
		b.WriteString("  No data available\n")
	}
	for _, step := range s.NextSteps {
		fmt.Fprintf(&b, "  - %s\n", step)
	}
	b.WriteString("\n" + heavyRule + "\n")

	return b.String()
}

// renderDatasets formats the supported coding system catalogue.
func renderDatasets(infos []domain.DatasetInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", styles.Title.Render(fmt.Sprintf("Supported coding systems (%d)", len(infos))))
	for _, info := range infos {
		marker := styles.Muted.Render("supplementary")
		if info.Official {
			marker = styles.Success.Render("official")
		}
		fmt.Fprintf(&b, "  %-22s %-20s %s\n", info.DisplayName, info.ID, marker)
	}
	return b.String()
}

// disclaimerBanner is the full medical-coding disclaimer, shown once when
// the interactive shell starts.
func disclaimerBanner() string {
	var b strings.Builder

	b.WriteString(heavyRule + "\n")
	b.WriteString(styles.Warning.Render("IMPORTANT DISCLAIMER") + "\n")
	b.WriteString(heavyRule + "\n")
	b.WriteString(`This AI-powered tool is for informational and research purposes only.

LIMITATIONS:
  - AI-generated analysis may contain errors or inaccuracies
  - Medical codes and recommendations require verification
  - Not a substitute for professional medical judgment
  - Clinical Tables API data quality may vary by dataset

REQUIRED ACTIONS:
  - All results MUST be reviewed by qualified healthcare professionals
  - Verify all medical codes against official coding guidelines
  - Consult current ICD, LOINC, and other official coding manuals
  - Do not use for direct patient care without human oversight

COMPLIANCE:
  - Users are responsible for HIPAA compliance and data privacy
  - No PHI (Protected Health Information) should be entered into this system
  - Medical liability rests with the healthcare provider, not this tool
`)
	b.WriteString(heavyRule + "\n")
	return b.String()
}

// advisoryFooter is the short per-response reminder.
func advisoryFooter() string {
	return styles.Muted.Render("Informational use only. Verify all codes against official coding guidelines before clinical use.")
}

// --- Formatting helpers ---

func datasetName(id domain.DatasetID) string {
	if info, ok := domain.DatasetByID(id); ok {
		return info.DisplayName
	}
	return strings.ToUpper(string(id))
}

func formatCacheAge(age time.Duration) string {
	if age < time.Minute {
		return fmt.Sprintf("%.0f seconds", age.Seconds())
	}
	return fmt.Sprintf("%.1f minutes", age.Minutes())
}

func orDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return "No data available"
	}
	return s
}

func searchQualityBadge(quality string) string {
	switch quality {
	case "EXCELLENT", "GOOD":
		return styles.Success.Render("[" + quality + "]")
	case "FAIR":
		return styles.Warning.Render("[" + quality + "]")
	case "POOR":
		return styles.Error.Render("[" + quality + "]")
	default:
		return styles.Muted.Render("[UNKNOWN]")
	}
}

func confidenceBadge(confidence string) string {
	switch strings.ToUpper(confidence) {
	case "HIGH":
		return styles.Success.Render("[HIGH CONFIDENCE]")
	case "MEDIUM":
		return styles.Warning.Render("[MEDIUM CONFIDENCE]")
	case "LOW":
		return styles.Error.Render("[LOW CONFIDENCE]")
	default:
		return styles.Muted.Render("[UNKNOWN CONFIDENCE]")
	}
}

func sortedDatasetIDs(m map[domain.DatasetID]string) []domain.DatasetID {
	ids := make([]domain.DatasetID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortDatasetsByTopRelevance(ids []domain.DatasetID, results map[domain.DatasetID][]domain.ScoredResult) {
	top := func(id domain.DatasetID) float64 {
		if rs := results[id]; len(rs) > 0 {
			return rs[0].Relevance
		}
		return 0
	}
	sort.Slice(ids, func(i, j int) bool {
		ti, tj := top(ids[i]), top(ids[j])
		if ti != tj {
			return ti > tj
		}
		return ids[i] < ids[j]
	})
}
