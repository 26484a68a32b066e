package syncer

import (
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/wI2L/jsondiff"

	"github.com/shll/contractsync/pkg/abi"
	"github.com/shll/contractsync/pkg/patcher"
)

// Report describes a single run.
type Report struct {
	RunID  uuid.UUID `json:"run_id" yaml:"run_id"`
	Target string    `json:"target" yaml:"target"`
	// Changed is true when the patched document differs from the one on disk.
	Changed bool `json:"changed" yaml:"changed"`
	// Written is true when the patched document was stored.
	Written bool          `json:"written" yaml:"written"`
	Entries []EntryReport `json:"entries" yaml:"entries"`
}

// EntryReport describes what happened to one registry entry.
type EntryReport struct {
	Name            string         `json:"name" yaml:"name"`
	Action          patcher.Action `json:"action" yaml:"action"`
	Address         string         `json:"address" yaml:"address"`
	PreviousAddress string         `json:"previous_address,omitempty" yaml:"previous_address,omitempty"`
	ABIPath         string         `json:"abi_path" yaml:"abi_path"`
	// Items is the number of top-level ABI items written.
	Items int `json:"items" yaml:"items"`
	// DiffOps counts the JSON patch operations between the previous and new
	// payload. It is -1 when the previous payload is not JSON.
	DiffOps int          `json:"diff_ops" yaml:"diff_ops"`
	Summary *abi.Summary `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Counts returns the number of updated and inserted entries.
func (r *Report) Counts() (updated, inserted int) {
	updated = lo.CountBy(r.Entries, func(e EntryReport) bool { return e.Action == patcher.ActionUpdated })
	inserted = lo.CountBy(r.Entries, func(e EntryReport) bool { return e.Action == patcher.ActionInserted })
	return updated, inserted
}

func newEntryReport(res patcher.Result, req patcher.Request, abiPath string, payload abi.Payload) EntryReport {
	entry := EntryReport{
		Name:            res.Name,
		Action:          res.Action,
		Address:         req.Address,
		PreviousAddress: res.PreviousAddress,
		ABIPath:         abiPath,
		Items:           payload.Len(),
		DiffOps:         diffOps(res, req),
	}

	summary, err := payload.Summarize()
	if err != nil {
		log.Debugw("abi summary unavailable", "entry", res.Name, "error", err)
	} else {
		entry.Summary = &summary
	}
	return entry
}

func diffOps(res patcher.Result, req patcher.Request) int {
	previous := res.PreviousPayload
	if res.Action == patcher.ActionInserted {
		previous = "[]"
	}
	if previous == req.Payload {
		return 0
	}
	patch, err := jsondiff.CompareJSON([]byte(previous), []byte(req.Payload))
	if err != nil {
		return -1
	}
	return len(patch)
}
