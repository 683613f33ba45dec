package reports

import (
	"fmt"
	"net/http"

	"github.com/angelmondragon/catering-backend/api/responses"
	"github.com/angelmondragon/catering-backend/api/validators"
	internalreports "github.com/angelmondragon/catering-backend/internal/reports"
	"github.com/angelmondragon/catering-backend/pkg/logger"
)

const (
	defaultMenuItemLimit = 10
	maxMenuItemLimit     = 100
	xlsxContentType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func Summary(svc internalreports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summary(r.Context(), validators.QueryString(r, "from"), validators.QueryString(r, "to"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func Revenue(svc internalreports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		months, err := svc.RevenueByMonth(r.Context(), validators.QueryString(r, "from"), validators.QueryString(r, "to"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"months": months})
	}
}

func MenuItems(svc internalreports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", defaultMenuItemLimit, 1, maxMenuItemLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.PopularMenuItems(r.Context(), validators.QueryString(r, "from"), validators.QueryString(r, "to"), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// ExportXLSX streams the report workbook as an attachment.
func ExportXLSX(svc internalreports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from := validators.QueryString(r, "from")
		to := validators.QueryString(r, "to")
		data, err := svc.ExportXLSX(r.Context(), from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(from, to)))
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil && logg != nil {
			logg.Error(r.Context(), "reports.export.write_failed", err)
		}
	}
}

func exportFilename(from, to string) string {
	switch {
	case from != "" && to != "":
		return fmt.Sprintf("catering-report-%s-to-%s.xlsx", from, to)
	case from != "":
		return fmt.Sprintf("catering-report-from-%s.xlsx", from)
	default:
		return "catering-report.xlsx"
	}
}
