package core

import (
	"fmt"

	"github.com/tidwall/sjson"
)

// SnapshotJSON renders Stats as a JSON document for the debug channel:
//
//	{"clock":12,"current":1,"next":1,"created":5,"capacity":8,"halted":false,
//	 "switches":{"requested":4,"completed":4,"pending":false},
//	 "tasks":[{"handle":0,"name":"led-red","status":"READY","priority":3,"delay":0,"sp":191}, ...]}
func (k *Kernel) SnapshotJSON() (string, error) {
	return statsJSON(k.Stats())
}

func statsJSON(stats KernelStats) (string, error) {
	var err error
	set := func(doc *string, path string, value any) {
		if err != nil {
			return
		}
		*doc, err = sjson.Set(*doc, path, value)
	}

	doc := "{}"
	set(&doc, "clock", stats.Clock)
	set(&doc, "current", int(stats.Current))
	set(&doc, "next", int(stats.Next))
	set(&doc, "created", stats.Created)
	set(&doc, "capacity", stats.Capacity)
	set(&doc, "started", stats.Started)
	set(&doc, "halted", stats.Halted)
	set(&doc, "switches.requested", stats.SwitchRequests)
	set(&doc, "switches.completed", stats.SwitchesCompleted)
	set(&doc, "switches.pending", stats.SwitchPending)
	if err == nil {
		doc, err = sjson.SetRaw(doc, "tasks", "[]")
	}

	for _, t := range stats.Tasks {
		task := "{}"
		set(&task, "handle", int(t.Handle))
		set(&task, "name", t.Name)
		set(&task, "status", t.Status.String())
		set(&task, "priority", t.Priority)
		set(&task, "delay", t.Delay)
		set(&task, "sp", t.SavedSP)
		if err == nil {
			doc, err = sjson.SetRaw(doc, "tasks.-1", task)
		}
	}
	if err != nil {
		return "", fmt.Errorf("minirtos: render snapshot: %w", err)
	}
	return doc, nil
}
