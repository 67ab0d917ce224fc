package pipeline

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/oinktech/StockAPI/internal/errors"
	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks req and parses it into Params. It performs no I/O.
func (p *Pipeline) Validate(req domain.Request) (domain.Params, error) {
	req.OutputFormat = strings.TrimSpace(req.OutputFormat)
	req.SortBy = strings.ToLower(strings.TrimSpace(req.SortBy))

	if err := p.validate.Struct(req); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return domain.Params{}, apperrors.NewInvalidParameterError(verrs[0].Field(), fieldMessage(verrs[0]))
		}
		return domain.Params{}, apperrors.NewInvalidParameterError("request", err.Error())
	}

	start, err := time.Parse(domain.DateLayout, req.StartDate)
	if err != nil {
		return domain.Params{}, apperrors.NewInvalidParameterError("start_date", "must be a calendar date in YYYY-MM-DD form")
	}
	end, err := time.Parse(domain.DateLayout, req.EndDate)
	if err != nil {
		return domain.Params{}, apperrors.NewInvalidParameterError("end_date", "must be a calendar date in YYYY-MM-DD form")
	}
	if !end.After(start) {
		return domain.Params{}, apperrors.NewInvalidParameterError("end_date", "must be after start_date")
	}

	format := domain.ParseFormat(req.OutputFormat)
	if _, err := p.exporters.Lookup(format); err != nil {
		return domain.Params{}, err
	}

	sortBy := domain.SortKey(req.SortBy)
	if sortBy == "" {
		sortBy = domain.SortByDate
	}

	return domain.Params{
		Start:    start,
		End:      end,
		Format:   format,
		Industry: strings.TrimSpace(req.Industry),
		SortBy:   sortBy,
	}, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must be a calendar date in YYYY-MM-DD form"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
