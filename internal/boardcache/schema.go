package boardcache

import "fmt"

// Redis key pattern helpers
//
// All keys are namespaced by project and team so several projects can share
// one Redis server without collisions.
//
// Key pattern: plank:{project}:{team}:{entity}[:{id}]

// BoardKey returns the Redis key for a cached board configuration.
// Pattern: plank:{project}:{team}:board:{board_id}
func BoardKey(project, team, boardID string) string {
	return fmt.Sprintf("plank:%s:%s:board:%s", project, team, boardID)
}

// BoardRefsKey returns the Redis key for a team's cached board reference
// list.
// Pattern: plank:{project}:{team}:boardrefs
func BoardRefsKey(project, team string) string {
	return fmt.Sprintf("plank:%s:%s:boardrefs", project, team)
}
