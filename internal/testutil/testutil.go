// Package testutil provides shared test fixtures for the engine packages.
package testutil

import (
	"math"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/creature/internal/logger"
)

// CreatureJSON is a two bone creature: "root" spans (0,0)-(10,0) and its
// child "arm" spans (10,0)-(20,0). Region "body" (points 0-3) follows
// root, region "tail" (points 4-7) follows arm.
//
// Clip "idle" holds the rest pose for frames 0-2. Clip "wave" lifts the
// arm to (10,10) at frame 1 and shifts the chain up by 4 at frame 2; body
// carries local displacements of (0, frame) and tail warps its UVs.
var CreatureJSON = []byte(`{
  "mesh": {
    "points": [0,-1, 0,1, 10,-1, 10,1,  10,-1, 10,1, 20,-1, 20,1],
    "indices": [0,1,2, 1,3,2,  4,5,6, 5,7,6],
    "uvs": [0,0, 0,1, 0.5,0, 0.5,1,  0.5,0, 0.5,1, 1,0, 1,1],
    "regions": {
      "body": {"id": 0, "start_pt_index": 0, "end_pt_index": 3, "start_index": 0, "end_index": 5,
               "weights": {"root": [1,1,1,1], "arm": [0,0,0,0]}},
      "tail": {"id": 1, "start_pt_index": 4, "end_pt_index": 7, "start_index": 6, "end_index": 11,
               "weights": {"root": [0,0,0,0], "arm": [1,1,1,1]}}
    }
  },
  "skeleton": {
    "root": {"id": 0, "restParentMat": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1],
             "localRestStartPt": [0,0], "localRestEndPt": [10,0], "children": [1]},
    "arm":  {"id": 1, "restParentMat": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1],
             "localRestStartPt": [0,0], "localRestEndPt": [10,0], "children": []}
  },
  "animation": {
    "idle": {
      "bones": {
        "0": {"root": {"start_pt": [0,0], "end_pt": [10,0]}, "arm": {"start_pt": [10,0], "end_pt": [20,0]}},
        "1": {"root": {"start_pt": [0,0], "end_pt": [10,0]}, "arm": {"start_pt": [10,0], "end_pt": [20,0]}},
        "2": {"root": {"start_pt": [0,0], "end_pt": [10,0]}, "arm": {"start_pt": [10,0], "end_pt": [20,0]}}
      },
      "meshes": {
        "0": {"body": {"use_local_displacements": false}, "tail": {"use_local_displacements": false}},
        "1": {"body": {"use_local_displacements": false}, "tail": {"use_local_displacements": false}},
        "2": {"body": {"use_local_displacements": false}, "tail": {"use_local_displacements": false}}
      },
      "uv_swaps": {
        "0": {"body": {"enabled": false}, "tail": {"enabled": false}},
        "1": {"body": {"enabled": false}, "tail": {"enabled": false}},
        "2": {"body": {"enabled": false}, "tail": {"enabled": false}}
      }
    },
    "wave": {
      "bones": {
        "0": {"root": {"start_pt": [0,0], "end_pt": [10,0]}, "arm": {"start_pt": [10,0], "end_pt": [20,0]}},
        "1": {"root": {"start_pt": [0,0], "end_pt": [10,0]}, "arm": {"start_pt": [10,0], "end_pt": [10,10]}},
        "2": {"root": {"start_pt": [0,4], "end_pt": [10,4]}, "arm": {"start_pt": [10,4], "end_pt": [20,4]}}
      },
      "meshes": {
        "0": {"body": {"use_local_displacements": true, "local_displacements": [0,0, 0,0, 0,0, 0,0]},
              "tail": {"use_local_displacements": false}},
        "1": {"body": {"use_local_displacements": true, "local_displacements": [0,1, 0,1, 0,1, 0,1]},
              "tail": {"use_local_displacements": false}},
        "2": {"body": {"use_local_displacements": true, "local_displacements": [0,2, 0,2, 0,2, 0,2]},
              "tail": {"use_local_displacements": false}}
      },
      "uv_swaps": {
        "0": {"body": {"enabled": false},
              "tail": {"enabled": true, "local_offset": [0,0], "global_offset": [0,0], "scale": [1,1]}},
        "1": {"body": {"enabled": false},
              "tail": {"enabled": true, "local_offset": [0,0], "global_offset": [0.1,0], "scale": [1,1]}},
        "2": {"body": {"enabled": false},
              "tail": {"enabled": true, "local_offset": [0,0], "global_offset": [0.2,0], "scale": [1,1]}}
      }
    }
  }
}`)

// NumPoints is the number of mesh points in CreatureJSON.
const NumPoints = 8

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertPoints compares flat x,y,z buffers within tol.
func AssertPoints(t *testing.T, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("buffer length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("point %d component %d = %v, want %v", i/3, i%3, got[i], want[i])
		}
	}
}

// CaptureLogs routes the global logger into memory at level and above
// for the rest of the test.
func CaptureLogs(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	prev := logger.Log
	logger.Log = zap.New(core)
	t.Cleanup(func() { logger.Log = prev })
	return logs
}
