package promptpack

import "RigorScore/internal/domain"

// Builtin returns the packs shipped with the engine.
func Builtin() []domain.PromptPack {
	return []domain.PromptPack{
		domain.NewPromptPack(domain.UseCasePostMortem, "v1", "Retrospective on a completed initiative or incident",
			domain.Criterion{Name: "timeline of events", Category: domain.CategoryCompleteness, Description: "Dates and milestones of what happened, in order"},
			domain.Criterion{Name: "decision record", Category: domain.CategoryCompleteness, Description: "Which decisions were taken, by whom and when"},
			domain.Criterion{Name: "budget and cost impact", Category: domain.CategoryCompleteness, Description: "Planned versus actual spend"},
			domain.Criterion{Name: "risk and root cause", Category: domain.CategoryQuality, Description: "Risks that materialized and their underlying causes"},
			domain.Criterion{Name: "stakeholder perspectives", Category: domain.CategoryConsistency, Description: "Positions of sponsors, owners and affected teams"},
			domain.Criterion{Name: "metrics and outcomes", Category: domain.CategoryQuality, Description: "Measured results against targets"},
		),
		domain.NewPromptPack(domain.UseCaseStrategyReview, "v1", "Review of a proposed or running strategy",
			domain.Criterion{Name: "vision and objectives", Category: domain.CategoryCompleteness, Description: "Stated goals and what success means"},
			domain.Criterion{Name: "market context", Category: domain.CategoryCompleteness, Description: "Competitive landscape and market assumptions"},
			domain.Criterion{Name: "alternative strategies", Category: domain.CategoryQuality, Description: "Options considered besides the chosen one"},
			domain.Criterion{Name: "budget and resourcing", Category: domain.CategoryCompleteness, Description: "Funding and staffing needed"},
			domain.Criterion{Name: "risk register", Category: domain.CategoryQuality, Description: "Key risks with mitigations"},
			domain.Criterion{Name: "success metrics", Category: domain.CategoryConsistency, Description: "KPIs that are consistent across documents"},
		),
		domain.NewPromptPack(domain.UseCaseDecisionReview, "v1", "Audit of a single significant decision",
			domain.Criterion{Name: "decision statement", Category: domain.CategoryCompleteness, Description: "What was decided and the scope of the decision"},
			domain.Criterion{Name: "alternatives considered", Category: domain.CategoryCompleteness, Description: "Options evaluated before deciding"},
			domain.Criterion{Name: "tradeoff analysis", Category: domain.CategoryQuality, Description: "Pros and cons weighed between the options"},
			domain.Criterion{Name: "stakeholder alignment", Category: domain.CategoryConsistency, Description: "Who approved and who objected"},
			domain.Criterion{Name: "risk mitigation", Category: domain.CategoryQuality, Description: "Known risks of the decision and planned responses"},
		),
		domain.NewPromptPack(domain.UseCaseRiskAssessment, "v1", "Assessment of risks for a plan or portfolio",
			domain.Criterion{Name: "risk inventory", Category: domain.CategoryCompleteness, Description: "Enumerated risks with descriptions"},
			domain.Criterion{Name: "likelihood and impact", Category: domain.CategoryQuality, Description: "Rated probability and consequence per risk"},
			domain.Criterion{Name: "mitigation and contingency", Category: domain.CategoryQuality, Description: "Planned mitigations and fallbacks"},
			domain.Criterion{Name: "risk owners", Category: domain.CategoryCompleteness, Description: "Named stakeholder responsible for each risk"},
			domain.Criterion{Name: "monitoring metrics", Category: domain.CategoryConsistency, Description: "Indicators tracked to detect risk changes"},
		),
	}
}

// NewBuiltinCatalog returns a catalog preloaded with Builtin packs.
func NewBuiltinCatalog() *Catalog {
	c := NewCatalog()
	for _, p := range Builtin() {
		if err := c.Register(p); err != nil {
			panic(err)
		}
	}
	return c
}
