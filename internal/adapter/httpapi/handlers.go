package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cellarworks/vintner-backend/internal/domain"
	"github.com/cellarworks/vintner-backend/internal/usecase/ledger"
	"github.com/cellarworks/vintner-backend/internal/usecase/shareprice"
)

// Monetary figures cross the wire as decimal strings, never floats, matching
// the storage representation.

type contributionDTO struct {
	EventID      string  `json:"event_id"`
	Kind         string  `json:"kind"`
	Description  string  `json:"description,omitempty"`
	BaseAmount   float64 `json:"base_amount"`
	CurrentValue float64 `json:"current_value"`
	AgeWeeks     int     `json:"age_weeks"`
}

type prestigeDTO struct {
	OwnerKey  string            `json:"owner_key"`
	Total     float64           `json:"total"`
	Breakdown []contributionDTO `json:"breakdown"`
}

func (s *Server) handlePrestige(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "id")

	result, err := s.ledger.CalculateCurrentPrestige(r.Context(), companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := prestigeDTO{
		OwnerKey:  result.OwnerKey,
		Total:     result.Total,
		Breakdown: make([]contributionDTO, 0, len(result.Breakdown)),
	}
	for _, c := range result.Breakdown {
		out.Breakdown = append(out.Breakdown, contributionDTO{
			EventID:      c.EventID.String(),
			Kind:         string(c.Kind),
			Description:  c.Description,
			BaseAmount:   c.BaseAmount,
			CurrentValue: c.CurrentValue,
			AgeWeeks:     c.AgeWeeks,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRelationship(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "id")

	boost, err := s.ledger.CalculateRelationshipBoost(r.Context(), companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"owner_key": companyID,
		"boost":     boost,
	})
}

type factorDTO struct {
	Name       string  `json:"name"`
	Raw        float64 `json:"raw"`
	Normalized float64 `json:"normalized"`
	Weight     float64 `json:"weight"`
}

type factorGroupDTO struct {
	Name         string      `json:"name"`
	Factors      []factorDTO `json:"factors"`
	Score        float64     `json:"score"`
	Weight       float64     `json:"weight"`
	Contribution float64     `json:"contribution"`
}

type creditRatingDTO struct {
	CompanyID       string           `json:"company_id"`
	BaseRating      float64          `json:"base_rating"`
	Groups          []factorGroupDTO `json:"groups"`
	NegativePenalty float64          `json:"negative_penalty"`
	FinalRating     float64          `json:"final_rating"`
}

func (s *Server) handleCreditRating(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "id")

	breakdown, err := s.rating.CalculateCreditRating(r.Context(), companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := creditRatingDTO{
		CompanyID:       breakdown.CompanyID,
		BaseRating:      breakdown.BaseRating,
		NegativePenalty: breakdown.NegativePenalty,
		FinalRating:     breakdown.FinalRating,
	}
	for _, group := range breakdown.Groups() {
		dto := factorGroupDTO{
			Name:         group.Name,
			Score:        group.Score,
			Weight:       group.Weight,
			Contribution: group.Contribution(),
			Factors:      make([]factorDTO, 0, len(group.Factors)),
		}
		for _, f := range group.Factors {
			dto.Factors = append(dto.Factors, factorDTO{
				Name:       f.Name,
				Raw:        f.Raw,
				Normalized: f.Normalized,
				Weight:     f.Weight,
			})
		}
		out.Groups = append(out.Groups, dto)
	}
	writeJSON(w, http.StatusOK, out)
}

type shareMetricsDTO struct {
	CompanyID string `json:"company_id"`
	Week      int    `json:"week"`

	AssetsPerShare string `json:"assets_per_share"`
	CashPerShare   string `json:"cash_per_share"`
	DebtPerShare   string `json:"debt_per_share"`

	RevenuePerShareFiscal    string `json:"revenue_per_share_fiscal"`
	EarningsPerShareFiscal   string `json:"earnings_per_share_fiscal"`
	DividendPerShareFiscal   string `json:"dividend_per_share_fiscal"`
	RevenuePerShareTrailing  string `json:"revenue_per_share_trailing"`
	EarningsPerShareTrailing string `json:"earnings_per_share_trailing"`
	DividendPerShareTrailing string `json:"dividend_per_share_trailing"`

	RevenueGrowthTrailing float64 `json:"revenue_growth_trailing"`
	ProfitMarginTrailing  float64 `json:"profit_margin_trailing"`

	CreditRating    float64 `json:"credit_rating"`
	Prestige        float64 `json:"prestige"`
	FixedAssetRatio float64 `json:"fixed_asset_ratio"`

	BookValuePerShare string `json:"book_value_per_share"`
}

func metricsToDTO(m *domain.ShareMetricsSnapshot) shareMetricsDTO {
	return shareMetricsDTO{
		CompanyID: m.CompanyID,
		Week:      m.Week,

		AssetsPerShare: m.AssetsPerShare.String(),
		CashPerShare:   m.CashPerShare.String(),
		DebtPerShare:   m.DebtPerShare.String(),

		RevenuePerShareFiscal:    m.RevenuePerShareFiscal.String(),
		EarningsPerShareFiscal:   m.EarningsPerShareFiscal.String(),
		DividendPerShareFiscal:   m.DividendPerShareFiscal.String(),
		RevenuePerShareTrailing:  m.RevenuePerShareTrailing.String(),
		EarningsPerShareTrailing: m.EarningsPerShareTrailing.String(),
		DividendPerShareTrailing: m.DividendPerShareTrailing.String(),

		RevenueGrowthTrailing: m.RevenueGrowthTrailing,
		ProfitMarginTrailing:  m.ProfitMarginTrailing,

		CreditRating:    m.CreditRating,
		Prestige:        m.Prestige,
		FixedAssetRatio: m.FixedAssetRatio,

		BookValuePerShare: m.BookValuePerShare.String(),
	}
}

func (s *Server) handleShareMetrics(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "id")

	metrics, err := s.shares.GetShareMetrics(r.Context(), companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metricsToDTO(metrics))
}

type priceStateDTO struct {
	CompanyID         string `json:"company_id"`
	CurrentPrice      string `json:"current_price"`
	BookValuePerShare string `json:"book_value_per_share"`
	Initialized       bool   `json:"initialized"`
	UpdatedWeek       int    `json:"updated_week"`
}

func (s *Server) handleInitializePrice(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "id")

	state, err := s.shares.InitializePrice(r.Context(), companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, priceStateDTO{
		CompanyID:         state.CompanyID,
		CurrentPrice:      state.CurrentPrice.String(),
		BookValuePerShare: state.BookValuePerShare.String(),
		Initialized:       state.Initialized,
		UpdatedWeek:       state.UpdatedWeek,
	})
}

type metricContributionDTO struct {
	Name     string  `json:"name"`
	Actual   float64 `json:"actual"`
	Expected float64 `json:"expected"`
	DeltaPct float64 `json:"delta_pct"`
	Applied  float64 `json:"applied"`
}

type adjustResultDTO struct {
	CompanyID         string                  `json:"company_id"`
	PreviousPrice     string                  `json:"previous_price"`
	NewPrice          string                  `json:"new_price"`
	BookValuePerShare string                  `json:"book_value_per_share"`
	TotalContribution float64                 `json:"total_contribution"`
	AnchorFactor      float64                 `json:"anchor_factor"`
	Contributions     []metricContributionDTO `json:"contributions"`
	Initialized       bool                    `json:"initialized"`
}

func adjustToDTO(result *shareprice.AdjustResult) adjustResultDTO {
	out := adjustResultDTO{
		CompanyID:         result.CompanyID,
		PreviousPrice:     result.PreviousPrice.String(),
		NewPrice:          result.NewPrice.String(),
		BookValuePerShare: result.BookValuePerShare.String(),
		TotalContribution: result.TotalContribution,
		AnchorFactor:      result.AnchorFactor,
		Initialized:       result.Initialized,
	}
	for _, c := range result.Contributions {
		out.Contributions = append(out.Contributions, metricContributionDTO{
			Name:     c.Name,
			Actual:   c.Actual,
			Expected: c.Expected,
			DeltaPct: c.DeltaPct,
			Applied:  c.Applied,
		})
	}
	return out
}

func (s *Server) handleAdjustPrice(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "id")

	result, err := s.shares.AdjustWeekly(r.Context(), companyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adjustToDTO(result))
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "id")

	in := struct {
		Epsilon float64 `json:"epsilon"`
		Apply   bool    `json:"apply"`
	}{Epsilon: ledger.PrestigeEpsilon}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	ids, err := s.ledger.Sweep(r.Context(), companyID, in.Epsilon)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if in.Apply && len(ids) > 0 {
		if err := s.events.DeleteByIDs(r.Context(), ids); err != nil {
			writeServiceError(w, err)
			return
		}
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"event_ids": out,
		"applied":   in.Apply,
	})
}

func (s *Server) handleRecordEvent(w http.ResponseWriter, r *http.Request) {
	var in struct {
		OwnerKey    string  `json:"owner_key"`
		Kind        string  `json:"kind"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := s.ledger.RecordEvent(r.Context(), in.OwnerKey, domain.EventKind(in.Kind), in.Amount, in.Description)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":           event.ID.String(),
		"owner_key":    event.OwnerKey,
		"kind":         string(event.Kind),
		"amount":       event.Amount,
		"created_week": event.CreatedWeek,
		"decay_rate":   event.DecayRate,
	})
}

func (s *Server) handleUpsertBaseEvent(w http.ResponseWriter, r *http.Request) {
	var in struct {
		OwnerKey string  `json:"owner_key"`
		Kind     string  `json:"kind"`
		SourceID string  `json:"source_id"`
		Amount   float64 `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := s.ledger.UpsertBaseEvent(r.Context(), in.OwnerKey, domain.EventKind(in.Kind), in.SourceID, in.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":           event.ID.String(),
		"owner_key":    event.OwnerKey,
		"kind":         string(event.Kind),
		"source_id":    event.SourceID,
		"amount":       event.Amount,
		"created_week": event.CreatedWeek,
	})
}
