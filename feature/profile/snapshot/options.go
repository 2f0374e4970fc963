package snapshot

import (
	"account-mirror/core/config"
	"account-mirror/feature/profile/models"
)

// ImportOptions is the immutable option set one import runs with. The
// configured defaults are merged with per-request overrides up front;
// parser and reconciler receive the final value and never consult global
// state.
type ImportOptions struct {
	ClearProfile bool

	MinimumStars   int
	IgnoreSilver   bool
	IgnoreMaterial bool

	ExceptWithRunes        bool
	ExceptLightDark        bool
	ExceptFusionIngredient bool

	DeleteMissingMonsters bool
	DeleteMissingRunes    bool

	LockMonsters    bool
	DefaultPriority models.Priority
}

// OptionsFromConfig builds the default option set from configuration.
func OptionsFromConfig(cfg config.ImportConfig) ImportOptions {
	return ImportOptions{
		ClearProfile:           cfg.ClearProfile,
		MinimumStars:           cfg.MinimumStars,
		IgnoreSilver:           cfg.IgnoreSilver,
		IgnoreMaterial:         cfg.IgnoreMaterial,
		ExceptWithRunes:        cfg.ExceptWithRunes,
		ExceptLightDark:        cfg.ExceptLightDark,
		ExceptFusionIngredient: cfg.ExceptFusionIngredient,
		DeleteMissingMonsters:  cfg.DeleteMissingMonsters,
		DeleteMissingRunes:     cfg.DeleteMissingRunes,
		LockMonsters:           cfg.LockMonsters,
		DefaultPriority:        models.ParsePriority(cfg.DefaultPriority),
	}
}

// Overrides are the per-request option overrides; nil fields keep the
// configured default.
type Overrides struct {
	ClearProfile *bool `json:"clear_profile,omitempty"`

	MinimumStars   *int  `json:"minimum_stars,omitempty"`
	IgnoreSilver   *bool `json:"ignore_silver,omitempty"`
	IgnoreMaterial *bool `json:"ignore_material,omitempty"`

	ExceptWithRunes        *bool `json:"except_with_runes,omitempty"`
	ExceptLightDark        *bool `json:"except_light_dark,omitempty"`
	ExceptFusionIngredient *bool `json:"except_fusion_ingredient,omitempty"`

	DeleteMissingMonsters *bool `json:"delete_missing_monsters,omitempty"`
	DeleteMissingRunes    *bool `json:"delete_missing_runes,omitempty"`

	LockMonsters    *bool   `json:"lock_monsters,omitempty"`
	DefaultPriority *string `json:"default_priority,omitempty"`
}

// With applies request overrides on top of the defaults, returning a new
// option set.
func (o ImportOptions) With(ov Overrides) ImportOptions {
	if ov.ClearProfile != nil {
		o.ClearProfile = *ov.ClearProfile
	}
	if ov.MinimumStars != nil {
		o.MinimumStars = *ov.MinimumStars
	}
	if ov.IgnoreSilver != nil {
		o.IgnoreSilver = *ov.IgnoreSilver
	}
	if ov.IgnoreMaterial != nil {
		o.IgnoreMaterial = *ov.IgnoreMaterial
	}
	if ov.ExceptWithRunes != nil {
		o.ExceptWithRunes = *ov.ExceptWithRunes
	}
	if ov.ExceptLightDark != nil {
		o.ExceptLightDark = *ov.ExceptLightDark
	}
	if ov.ExceptFusionIngredient != nil {
		o.ExceptFusionIngredient = *ov.ExceptFusionIngredient
	}
	if ov.DeleteMissingMonsters != nil {
		o.DeleteMissingMonsters = *ov.DeleteMissingMonsters
	}
	if ov.DeleteMissingRunes != nil {
		o.DeleteMissingRunes = *ov.DeleteMissingRunes
	}
	if ov.LockMonsters != nil {
		o.LockMonsters = *ov.LockMonsters
	}
	if ov.DefaultPriority != nil {
		o.DefaultPriority = models.ParsePriority(*ov.DefaultPriority)
	}
	return o
}

// includeMonster applies the monster filter chain: each exclusion rule is
// independently toggleable, and any matching override reinstates an
// otherwise excluded monster.
func (o ImportOptions) includeMonster(base *models.MonsterBase, info *models.UnitInfo) bool {
	excluded := base.NaturalStars < o.MinimumStars
	if o.IgnoreSilver && !base.Awakens {
		excluded = true
	}
	if o.IgnoreMaterial && base.Archetype == models.ArchetypeMaterial {
		excluded = true
	}
	if !excluded {
		return true
	}

	if o.ExceptWithRunes && len(info.Runes)+len(info.Artifacts) > 0 {
		return true
	}
	if o.ExceptLightDark && (base.Element == models.ElementLight || base.Element == models.ElementDark) {
		return true
	}
	if o.ExceptFusionIngredient && base.FusionFood {
		return true
	}
	return false
}
