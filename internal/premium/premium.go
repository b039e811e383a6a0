// Package premium decides which pro features a user may use. Gated canvas
// items consult it synchronously when a gesture starts.
package premium

import "sync"

// Feature is a pro-only capability.
type Feature struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

const (
	FeatureNoWatermark      = "export-no-watermark"
	FeaturePremiumStickers  = "premium-stickers"
	FeatureUltraHDExport    = "ultra-hd-export"
	FeatureAdvancedText     = "advanced-text"
	FeatureTransparentBG    = "transparent-bg"
	FeatureUnlimited        = "unlimited-creations"
	FeaturePrioritySupport  = "priority-support"
	FeaturePremiumTemplates = "premium-templates"
	// FeatureAdvancedEditing is requested when manipulating a premium item.
	FeatureAdvancedEditing = "advanced-editing"
)

var features = []Feature{
	{FeatureNoWatermark, "Export Without Watermark", "Save your collages without any branding"},
	{FeaturePremiumStickers, "Premium Stickers", "Access exclusive sticker designs"},
	{FeatureUltraHDExport, "Ultra HD Export", "Export in 4K resolution"},
	{FeatureAdvancedText, "Advanced Text Styles", "Custom fonts, shadows and strokes"},
	{FeatureTransparentBG, "Transparent Background", "Export with transparent PNG backgrounds"},
	{FeatureUnlimited, "Unlimited Creations", "Create and save as many collages as you want"},
	{FeaturePrioritySupport, "Priority Support", "Faster responses from support"},
	{FeaturePremiumTemplates, "Premium Templates", "Unlock pro-only templates"},
	{FeatureAdvancedEditing, "Advanced Editing", "Move, scale and rotate premium items"},
}

// Features lists every pro feature.
func Features() []Feature {
	return append([]Feature(nil), features...)
}

// IsProFeature reports whether id names a pro feature. Unknown ids are free.
func IsProFeature(id string) bool {
	for _, f := range features {
		if f.ID == id {
			return true
		}
	}
	return false
}

// Checker is the capability check consumed by the editor.
type Checker interface {
	RequestFeatureAccess(featureID string) bool
}

// Gate grants every feature to pro users and only free features otherwise.
// Denials are reported to OnDenied so the caller can prompt an upgrade.
type Gate struct {
	mu       sync.RWMutex
	pro      bool
	onDenied func(featureID string)
}

func NewGate(pro bool, onDenied func(featureID string)) *Gate {
	return &Gate{pro: pro, onDenied: onDenied}
}

func (g *Gate) IsPro() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pro
}

func (g *Gate) SetPro(pro bool) {
	g.mu.Lock()
	g.pro = pro
	g.mu.Unlock()
}

// CanAccess answers without side effects.
func (g *Gate) CanAccess(featureID string) bool {
	return g.IsPro() || !IsProFeature(featureID)
}

// RequestFeatureAccess answers and reports a denial.
func (g *Gate) RequestFeatureAccess(featureID string) bool {
	if g.CanAccess(featureID) {
		return true
	}
	if g.onDenied != nil {
		g.onDenied(featureID)
	}
	return false
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(featureID string) bool

func (f CheckerFunc) RequestFeatureAccess(featureID string) bool { return f(featureID) }

// AllowAll grants everything.
var AllowAll Checker = CheckerFunc(func(string) bool { return true })
