// Package harness runs save/load scenarios against a scene tree.
//
// A scenario builds a tree, installs synchronizers and spawners from a CUE
// configuration, then mutates, saves, loads and checks the tree step by
// step.
//
// # Scenario Format
//
//	name: player_roundtrip
//	description: "Player state survives a save and load"
//	scene:
//	  name: root
//	  children:
//	    - name: Player
//	      properties: { health: 100, position: { Vector2: [1, 2] } }
//	library:
//	  bat:
//	    args: [hp]
//	    properties: { hp: 3 }
//	    children:
//	      - { name: Sync, kind: synchronizer, sync: [":hp"] }
//	config: |
//	  synchronizers: [{path: "Player/Sync", properties: [".:health"]}]
//	  spawners: [{path: "Spawner", spawn_path: "..", scenes: ["bat"]}]
//	steps:
//	  - spawn: { spawner: Spawner, scene: bat, args: [5] }
//	  - save: { slot: quick }
//	  - set: { node: Player, property: health, value: 1 }
//	  - load: { slot: quick }
//	  - expect: { node: Player, property: health, value: 100 }
//	  - expect_children: { node: ., names: [Player, Spawner, bat_1] }
//	  - expect_warnings: {}
//
// Node paths in steps are relative to the tree root. Saves and loads go to
// a slot of an in-memory store or a file of an in-memory filesystem.
//
// # Deterministic Testing
//
// The harness uses:
//   - Deterministic logical clock (testutil.DeterministicClock) for trace seq
//   - Sequence record ids (testutil.SequenceGenerator) for the store
//   - In-memory SQLite database and memfs filesystem (isolated per run)
//
// This ensures identical traces across runs for golden file comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/roundtrip.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
