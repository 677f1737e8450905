package redis

import "fmt"

// Key construction helpers for plant placement state

// PlacementStateKey returns the key for the persisted placement record
// Pattern: plants:state:{location}
func PlacementStateKey(location string) string {
	return fmt.Sprintf("plants:state:%s", location)
}

// PlacementHistoryKey returns the key for the decision history list
// Pattern: plants:history:{location}
func PlacementHistoryKey(location string) string {
	return fmt.Sprintf("plants:history:%s", location)
}
