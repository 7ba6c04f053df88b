package orchestrators

import (
	"strconv"
	"strings"

	"goaliegen/internal/domain/analytics"
	"goaliegen/internal/domain/catalog"
	"goaliegen/internal/domain/document"
)

func planType(k catalog.Kind) string {
	if k == catalog.KindTeamPlan {
		return "team"
	}
	return "individual"
}

// generatedEvent names the analytics event for a finished generation.
func generatedEvent(req document.Request) (analytics.Name, map[string]string) {
	switch req.Kind.Kind {
	case catalog.KindDrill:
		return analytics.EventDownloadDrill, map[string]string{
			"age_group":   string(req.AgeGroup),
			"skill_level": string(req.SkillLevel),
		}
	case catalog.KindTeamPlan:
		return analytics.EventGeneratePlan, map[string]string{
			"type":          planType(req.Kind.Kind),
			"team_name":     req.TeamName,
			"age_group":     string(req.AgeGroup),
			"skill_level":   string(req.SkillLevel),
			"num_practices": strconv.Itoa(req.Practices),
		}
	case catalog.KindDevelopmentPlan:
		return analytics.EventGeneratePlan, map[string]string{
			"type":      planType(req.Kind.Kind),
			"team_name": req.TeamName,
		}
	default:
		return analytics.EventGenerateJournal, map[string]string{"team_name": req.TeamName}
	}
}

// downloadedEvent names the analytics event for an artifact handed to the browser.
// Params come from the raw form inputs because the request is gone by then.
func downloadedEvent(kind catalog.Kind, in document.Inputs) (analytics.Name, map[string]string) {
	switch kind {
	case catalog.KindDrill:
		return analytics.EventDrillDownloaded, map[string]string{
			"age_group":   strings.TrimSpace(in.AgeGroup),
			"skill_level": strings.TrimSpace(in.SkillLevel),
		}
	case catalog.KindTeamPlan, catalog.KindDevelopmentPlan:
		return analytics.EventPlanDownloaded, map[string]string{
			"type":      planType(kind),
			"team_name": strings.TrimSpace(in.TeamName),
		}
	default:
		return analytics.EventDownloadJournal, map[string]string{"team_name": strings.TrimSpace(in.TeamName)}
	}
}
