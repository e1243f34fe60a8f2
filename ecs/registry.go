package ecs

import "sync"

// Registry holds the entities of a level: an ordered list of enemies and
// one distinguished player. Iteration order is enemies in insertion order,
// then the player, which is therefore always drawn on top.
type Registry struct {
	mu      sync.RWMutex
	enemies []Entity
	player  Entity
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		enemies: make([]Entity, 0),
	}
}

// AddEnemy appends an enemy to the registry
func (r *Registry) AddEnemy(e Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enemies = append(r.enemies, e)
}

// SetPlayer sets the player entity, replacing any previous one
func (r *Registry) SetPlayer(p Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.player = p
}

// Player returns the player entity, or nil
func (r *Registry) Player() Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.player
}

// Enemies returns a copy of the enemy list
func (r *Registry) Enemies() []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	enemies := make([]Entity, len(r.enemies))
	copy(enemies, r.enemies)
	return enemies
}

// Entities returns the frame order: every enemy, then the player if set
func (r *Registry) Entities() []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entities := make([]Entity, 0, len(r.enemies)+1)
	entities = append(entities, r.enemies...)
	if r.player != nil {
		entities = append(entities, r.player)
	}
	return entities
}

// Len returns the number of entities including the player
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.enemies)
	if r.player != nil {
		n++
	}
	return n
}
