package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/riskibarqy/h2h-analyzer/internal/domain/fixture"
	"github.com/riskibarqy/h2h-analyzer/internal/usecase"
)

type headToHeadQuery struct {
	Team1ID   int64  `validate:"required,gt=0"`
	Team2ID   int64  `validate:"required,gt=0,nefield=Team1ID"`
	Team1Name string `validate:"max=100"`
	Team2Name string `validate:"max=100"`
	WithForm  bool
}

func parseHeadToHeadQuery(r *http.Request) (headToHeadQuery, error) {
	values := r.URL.Query()
	out := headToHeadQuery{
		Team1Name: strings.TrimSpace(values.Get("team1_name")),
		Team2Name: strings.TrimSpace(values.Get("team2_name")),
		WithForm:  true,
	}

	var err error
	if out.Team1ID, err = parseTeamID(values.Get("team1_id"), "team1_id"); err != nil {
		return headToHeadQuery{}, err
	}
	if out.Team2ID, err = parseTeamID(values.Get("team2_id"), "team2_id"); err != nil {
		return headToHeadQuery{}, err
	}
	if raw := strings.TrimSpace(values.Get("form")); raw != "" {
		if out.WithForm, err = strconv.ParseBool(raw); err != nil {
			return headToHeadQuery{}, fmt.Errorf("%w: form must be a boolean", usecase.ErrInvalidInput)
		}
	}
	return out, nil
}

func parseTeamID(raw, name string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, name)
	}
	return id, nil
}

// GetHeadToHead analyses a single pair on demand.
func (h *Handler) GetHeadToHead(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetHeadToHead")
	defer span.End()

	query, err := parseHeadToHeadQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(w, err)
		return
	}

	input := usecase.PairInput{
		Team1:    fixture.TeamRef{ID: query.Team1ID, Name: defaultTeamName(query.Team1Name, query.Team1ID)},
		Team2:    fixture.TeamRef{ID: query.Team2ID, Name: defaultTeamName(query.Team2Name, query.Team2ID)},
		SkipForm: !query.WithForm,
	}
	entry, ok, err := h.pairService.AnalyzePair(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "analyze pair failed",
			"team1_id", query.Team1ID,
			"team2_id", query.Team2ID,
			"error", err,
		)
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, fmt.Errorf("%w: no head-to-head data for teams %d and %d", usecase.ErrNotFound, query.Team1ID, query.Team2ID))
		return
	}

	writeSuccess(w, http.StatusOK, entryToDTO(entry))
}

func defaultTeamName(name string, id int64) string {
	if name != "" {
		return name
	}
	return "Team " + strconv.FormatInt(id, 10)
}
