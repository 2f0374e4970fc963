package snapshot

// StageCounts tallies what one reconciliation stage did.
type StageCounts struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Deleted   int `json:"deleted"`
	Failed    int `json:"failed"`
}

// Skip records one dropped record with its machine-readable reason.
type Skip struct {
	Family     string `json:"family"`
	ExternalID int64  `json:"external_id"`
	Reason     string `json:"reason"`
}

// Skip reasons.
const (
	SkipUnknownSpecies  = "unknown_species"
	SkipUnknownItem     = "unknown_item"
	SkipUnknownBuilding = "unknown_building"
	SkipFiltered        = "filtered"
	SkipUnknownMonster  = "unknown_monster"
	SkipSaveFailed      = "save_failed"
)

// ImportReport is the outcome of one snapshot import, per stage.
type ImportReport struct {
	Materials StageCounts `json:"materials"`
	Shrine    StageCounts `json:"shrine"`
	Buildings StageCounts `json:"buildings"`
	Runes     StageCounts `json:"runes"`
	Artifacts StageCounts `json:"artifacts"`
	Monsters  StageCounts `json:"monsters"`
	Pieces    StageCounts `json:"pieces"`
	Crafts    StageCounts `json:"crafts"`
	RTA       StageCounts `json:"rta"`
	Sweep     StageCounts `json:"sweep"`

	Skips []Skip `json:"skips,omitempty"`
}

func (r *ImportReport) skip(family string, externalID int64, reason string) {
	r.Skips = append(r.Skips, Skip{Family: family, ExternalID: externalID, Reason: reason})
}
