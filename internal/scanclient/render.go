package scanclient

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"foodscan/internal/domain"
	"foodscan/internal/i18n"
)

// Render prints the estimate as returned, without rounding. A missing
// estimate or food name prints the "could not analyze" message.
func Render(w io.Writer, locale string, est *domain.NutritionEstimate) error {
	if est == nil || est.FoodName == "" {
		_, err := fmt.Fprintln(w, i18n.T(locale, i18n.MsgCouldNotAnalyze))
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n  %s: %s kcal\n  %s: %s g\n  %s: %s g\n  %s: %s g\n",
		est.FoodName,
		i18n.T(locale, i18n.MsgCalories), number(est.Calories),
		i18n.T(locale, i18n.MsgProtein), number(est.Protein),
		i18n.T(locale, i18n.MsgCarbs), number(est.Carbs),
		i18n.T(locale, i18n.MsgFat), number(est.Fat),
	)
	return err
}

// RenderError prints a failed submission. Server messages are shown verbatim.
func RenderError(w io.Writer, locale string, err error) error {
	prefix := i18n.T(locale, i18n.MsgErrorPrefix)
	var respErr *ResponseError
	var msg string
	switch {
	case errors.As(err, &respErr):
		msg = respErr.Message
	case errors.Is(err, ErrSubmitInProgress):
		msg = i18n.T(locale, i18n.MsgSubmitInProgress)
	case errors.Is(err, ErrTransport):
		msg = i18n.T(locale, i18n.MsgFunctionErrorWrap) + ": " + err.Error()
	default:
		msg = err.Error()
	}
	_, werr := fmt.Fprintf(w, "%s: %s\n", prefix, msg)
	return werr
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
