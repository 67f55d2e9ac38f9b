// Package i18n holds the message catalogue shared by the analysis endpoint and
// the scan client.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

const (
	English = "en"
	Italian = "it"
)

type Key string

const (
	MsgNoImage           Key = "no_image"
	MsgInvalidImage      Key = "invalid_image"
	MsgImageTooLarge     Key = "image_too_large"
	MsgInvalidPayload    Key = "invalid_payload"
	MsgUnauthenticated   Key = "unauthenticated"
	MsgRateLimited       Key = "rate_limited"
	MsgUpstream          Key = "upstream"
	MsgMalformed         Key = "malformed"
	MsgInternal          Key = "internal"
	MsgAnalyzing         Key = "analyzing"
	MsgCouldNotAnalyze   Key = "could_not_analyze"
	MsgErrorPrefix       Key = "error_prefix"
	MsgCalories          Key = "calories"
	MsgProtein           Key = "protein"
	MsgCarbs             Key = "carbs"
	MsgFat               Key = "fat"
	MsgSubmitInProgress  Key = "submit_in_progress"
	MsgFunctionErrorWrap Key = "function_error"
	MsgTooManyRequests   Key = "too_many_requests"
)

var supported = []language.Tag{language.English, language.Italian}

var matcher = language.NewMatcher(supported)

var catalogue = map[string]map[Key]string{
	English: {
		MsgNoImage:           "No image data provided.",
		MsgInvalidImage:      "Image data is not valid base64.",
		MsgImageTooLarge:     "Image is too large.",
		MsgInvalidPayload:    "Invalid request payload.",
		MsgUnauthenticated:   "User not authenticated.",
		MsgRateLimited:       "Rate limit exceeded. Please try again tomorrow.",
		MsgUpstream:          "The analysis service is unavailable. Please try again later.",
		MsgMalformed:         "Could not read the nutrition estimate for this photo.",
		MsgInternal:          "Unexpected error.",
		MsgAnalyzing:         "Analyzing your photo, please wait...",
		MsgCouldNotAnalyze:   "Could not analyze the food in the photo.",
		MsgErrorPrefix:       "Error",
		MsgCalories:          "Calories",
		MsgProtein:           "Protein",
		MsgCarbs:             "Carbohydrates",
		MsgFat:               "Fat",
		MsgSubmitInProgress:  "An analysis is already in progress.",
		MsgFunctionErrorWrap: "Function error",
		MsgTooManyRequests:   "Too many requests. Slow down and try again shortly.",
	},
	Italian: {
		MsgNoImage:           "Nessuna immagine fornita.",
		MsgInvalidImage:      "I dati dell'immagine non sono base64 validi.",
		MsgImageTooLarge:     "L'immagine è troppo grande.",
		MsgInvalidPayload:    "Richiesta non valida.",
		MsgUnauthenticated:   "Utente non autenticato.",
		MsgRateLimited:       "Limite di utilizzo superato. Riprova domani.",
		MsgUpstream:          "Il servizio di analisi non è disponibile. Riprova più tardi.",
		MsgMalformed:         "Impossibile leggere la stima nutrizionale per questa foto.",
		MsgInternal:          "Errore imprevisto.",
		MsgAnalyzing:         "Analisi della tua foto in corso, attendere prego...",
		MsgCouldNotAnalyze:   "Impossibile analizzare il cibo nella foto. Prova con un'immagine più chiara.",
		MsgErrorPrefix:       "Errore",
		MsgCalories:          "Calorie",
		MsgProtein:           "Proteine",
		MsgCarbs:             "Carboidrati",
		MsgFat:               "Grassi",
		MsgSubmitInProgress:  "Un'analisi è già in corso.",
		MsgFunctionErrorWrap: "Errore della funzione",
		MsgTooManyRequests:   "Troppe richieste. Riprova tra poco.",
	},
}

// Match picks the best supported locale for one or more language preference
// strings (Accept-Language values or bare tags). Unknown input yields fallback,
// or English when fallback is unsupported.
func Match(fallback string, prefs ...string) string {
	var cleaned []string
	for _, p := range prefs {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) > 0 {
		tag, _, confidence := matcher.Match(parseAll(cleaned)...)
		if confidence != language.No {
			base, _ := tag.Base()
			return base.String()
		}
	}
	return Normalize(fallback)
}

// Normalize maps an arbitrary locale string onto a supported one.
func Normalize(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if strings.HasPrefix(locale, Italian) {
		return Italian
	}
	return English
}

// ForCountry returns the locale associated with an ISO country code, or "" when
// the country gives no hint.
func ForCountry(country string) string {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "IT", "SM", "VA":
		return Italian
	case "":
		return ""
	default:
		return English
	}
}

// T returns the message for key in locale, falling back to English.
func T(locale string, key Key) string {
	if msgs, ok := catalogue[Normalize(locale)]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	return catalogue[English][key]
}

func parseAll(prefs []string) []language.Tag {
	var tags []language.Tag
	for _, p := range prefs {
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	return tags
}
