package messaging

import (
	"fmt"
	"sort"

	"github.com/odyssey-erp/boutique/internal/shared"
)

// Template names a predefined message.
type Template string

const (
	TemplateWelcome    Template = "welcome"
	TemplateNewArrival Template = "newArrival"
	TemplatePromotion  Template = "promotion"
	TemplateReminder   Template = "reminder"
	TemplateThankYou   Template = "thankYou"
	TemplateRamadan    Template = "ramadan"
	TemplateEid        Template = "eid"
	TemplateCustom     Template = "custom"
)

// ErrUnknownTemplate is returned for names outside the template set.
var ErrUnknownTemplate = fmt.Errorf("messaging: unknown template: %w", shared.ErrValidation)

// Vars fills template placeholders.
type Vars struct {
	PromoCode     string `json:"promoCode,omitempty"`
	ProductName   string `json:"productName,omitempty"`
	Discount      string `json:"discount,omitempty"`
	Category      string `json:"category,omitempty"`
	OrderID       string `json:"orderId,omitempty"`
	CustomMessage string `json:"customMessage,omitempty"`
}

var templates = map[Template]func(Vars) string{
	TemplateWelcome: func(v Vars) string {
		s := "Bienvenue chez Al Madinah Boutique ! 🌟 Découvrez notre collection de mode islamique élégante."
		if v.PromoCode != "" {
			s += " Code promo: " + v.PromoCode
		}
		return s
	},
	TemplateNewArrival: func(v Vars) string {
		return fmt.Sprintf("🆕 Nouvelles arrivées chez Al Madinah ! %s maintenant disponibles. Visitez-nous pour découvrir notre collection.",
			or(v.ProductName, "Nouveaux produits"))
	},
	TemplatePromotion: func(v Vars) string {
		return fmt.Sprintf("🎉 Promotion spéciale Al Madinah ! %s de réduction sur %s. Offre limitée !",
			or(v.Discount, "20%"), or(v.Category, "toute la collection"))
	},
	TemplateReminder: func(v Vars) string {
		return fmt.Sprintf("📋 Rappel: Votre commande %s vous attend chez Al Madinah Boutique. Merci de passer la récupérer.", v.OrderID)
	},
	TemplateThankYou: func(v Vars) string {
		return fmt.Sprintf("🙏 Merci pour votre achat chez Al Madinah ! Nous espérons que vous êtes satisfait(e) de votre %s.",
			or(v.ProductName, "achat"))
	},
	TemplateRamadan: func(Vars) string {
		return "🌙 Ramadan Kareem ! Découvrez notre collection spéciale Ramadan chez Al Madinah. Abayas, hijabs et accessoires pour ce mois béni."
	},
	TemplateEid: func(Vars) string {
		return "🎊 Eid Mubarak ! Célébrez l'Aïd avec style grâce à notre collection festive Al Madinah. Offres spéciales en cours !"
	},
	TemplateCustom: func(v Vars) string {
		return v.CustomMessage
	},
}

// Render produces the message text for name.
func Render(name Template, vars Vars) (string, error) {
	fn, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownTemplate, name)
	}
	return fn(vars), nil
}

// Templates lists the template names.
func Templates() []Template {
	out := make([]Template, 0, len(templates))
	for name := range templates {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
