package scheduling

import (
	"fmt"
	"strings"
	"sync"

	"github.com/noah-isme/timetable-api/internal/models"
)

// indexKey orders entries by day, start time and id.
type indexKey struct {
	day   int
	start models.TimeOfDay
	id    string
}

func keyOf(entry *models.ScheduleEntry) indexKey {
	return indexKey{day: entry.TimeSlot.Day.Ordinal(), start: entry.TimeSlot.StartTime, id: entry.ID}
}

func (k indexKey) compare(other indexKey) int {
	switch {
	case k.day != other.day:
		return k.day - other.day
	case k.start != other.start:
		return int(k.start) - int(other.start)
	default:
		return strings.Compare(k.id, other.id)
	}
}

type node struct {
	key    indexKey
	entry  *models.ScheduleEntry
	left   *node
	right  *node
	height int
}

func height(n *node) int {
	if n == nil {
		return 0
	}
	return n.height
}

func balanceFactor(n *node) int {
	if n == nil {
		return 0
	}
	return height(n.left) - height(n.right)
}

func (n *node) refresh() {
	n.height = 1 + max(height(n.left), height(n.right))
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	y.refresh()
	x.refresh()
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	x.refresh()
	y.refresh()
	return y
}

func rebalance(n *node) *node {
	n.refresh()
	switch bf := balanceFactor(n); {
	case bf > 1:
		if balanceFactor(n.left) < 0 {
			n.left = rotateLeft(n.left)
		}
		n = rotateRight(n)
	case bf < -1:
		if balanceFactor(n.right) > 0 {
			n.right = rotateRight(n.right)
		}
		n = rotateLeft(n)
	}
	if bf := balanceFactor(n); bf > 1 || bf < -1 {
		panic(fmt.Sprintf("scheduling: node %s unbalanced after rotation (bf=%d)", n.key.id, bf))
	}
	return n
}

func insertNode(n *node, key indexKey, entry *models.ScheduleEntry) *node {
	if n == nil {
		return &node{key: key, entry: entry, height: 1}
	}
	switch c := key.compare(n.key); {
	case c < 0:
		n.left = insertNode(n.left, key, entry)
	case c > 0:
		n.right = insertNode(n.right, key, entry)
	default:
		panic(fmt.Sprintf("scheduling: duplicate index key for entry %s", key.id))
	}
	return rebalance(n)
}

func minNode(n *node) *node {
	for n.left != nil {
		n = n.left
	}
	return n
}

func deleteNode(n *node, key indexKey) (*node, bool) {
	if n == nil {
		return nil, false
	}
	var removed bool
	switch c := key.compare(n.key); {
	case c < 0:
		n.left, removed = deleteNode(n.left, key)
	case c > 0:
		n.right, removed = deleteNode(n.right, key)
	default:
		removed = true
		if n.left == nil {
			return n.right, true
		}
		if n.right == nil {
			return n.left, true
		}
		successor := minNode(n.right)
		n.right, _ = deleteNode(n.right, successor.key)
		n.key, n.entry = successor.key, successor.entry
	}
	if !removed {
		return n, false
	}
	return rebalance(n), true
}

// ascendFrom visits nodes with key >= lo in order until visit returns false.
func ascendFrom(n *node, lo indexKey, visit func(*node) bool) bool {
	if n == nil {
		return true
	}
	if n.key.compare(lo) >= 0 {
		if !ascendFrom(n.left, lo, visit) {
			return false
		}
		if !visit(n) {
			return false
		}
	}
	return ascendFrom(n.right, lo, visit)
}

// ScheduleIndex is the authoritative, ordered set of committed schedule entries.
// Reads take a shared lock; Update runs a read-modify-write sequence under the
// exclusive lock so that conflict checks and inserts are atomic.
type ScheduleIndex struct {
	mu      sync.RWMutex
	root    *node
	keys    map[string]indexKey
	version uint64
}

// NewScheduleIndex returns an empty index.
func NewScheduleIndex() *ScheduleIndex {
	return &ScheduleIndex{keys: make(map[string]indexKey)}
}

// IndexTx is the unlocked view handed to Update callbacks.
type IndexTx struct {
	ix *ScheduleIndex
}

// FindConflicts lists entries that clash with the candidate booking.
func (tx *IndexTx) FindConflicts(professorID, roomID string, slot models.TimeSlot) []models.ScheduleConflict {
	return tx.ix.findConflicts(professorID, roomID, slot)
}

// IsRoomAvailable reports whether roomID is free during slot.
func (tx *IndexTx) IsRoomAvailable(roomID string, slot models.TimeSlot) bool {
	return tx.ix.isRoomAvailable(roomID, slot)
}

// Insert adds entry to the index.
func (tx *IndexTx) Insert(entry models.ScheduleEntry) models.ScheduleEntry {
	return tx.ix.insert(entry)
}

// Delete removes the entry with id, returning it when present.
func (tx *IndexTx) Delete(id string) (models.ScheduleEntry, bool) {
	return tx.ix.delete(id)
}

// Update runs fn while holding the exclusive lock.
func (ix *ScheduleIndex) Update(fn func(tx *IndexTx) error) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return fn(&IndexTx{ix: ix})
}

// Insert adds a single entry. Callers are expected to have checked FindConflicts first.
func (ix *ScheduleIndex) Insert(entry models.ScheduleEntry) models.ScheduleEntry {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.insert(entry)
}

// Delete removes an entry by id.
func (ix *ScheduleIndex) Delete(id string) (models.ScheduleEntry, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.delete(id)
}

// Restore loads previously committed entries, rejecting any batch that breaks the
// no-double-booking invariant. Nothing is inserted when an error is returned.
func (ix *ScheduleIndex) Restore(entries []models.ScheduleEntry) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	staged := NewScheduleIndex()
	for _, entry := range entries {
		if entry.ID == "" || entry.TimeSlot == nil {
			return fmt.Errorf("restore entry %q: missing id or time slot", entry.ID)
		}
		if _, exists := ix.keys[entry.ID]; exists {
			return fmt.Errorf("restore entry %s: already indexed", entry.ID)
		}
		if _, exists := staged.keys[entry.ID]; exists {
			return fmt.Errorf("restore entry %s: duplicate id", entry.ID)
		}
		if conflicts := staged.findConflicts(entry.ProfessorID, entry.RoomID, *entry.TimeSlot); len(conflicts) > 0 {
			return fmt.Errorf("restore entry %s: %s", entry.ID, conflicts[0].Message)
		}
		if conflicts := ix.findConflicts(entry.ProfessorID, entry.RoomID, *entry.TimeSlot); len(conflicts) > 0 {
			return fmt.Errorf("restore entry %s: %s", entry.ID, conflicts[0].Message)
		}
		staged.insert(entry)
	}
	for _, entry := range entries {
		ix.insert(entry)
	}
	return nil
}

// FindConflicts lists entries on the same day whose time range overlaps slot and that
// share the professor or the room. An empty id skips that dimension.
func (ix *ScheduleIndex) FindConflicts(professorID, roomID string, slot models.TimeSlot) []models.ScheduleConflict {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.findConflicts(professorID, roomID, slot)
}

// IsRoomAvailable reports whether no entry uses roomID in an overlapping window.
func (ix *ScheduleIndex) IsRoomAvailable(roomID string, slot models.TimeSlot) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.isRoomAvailable(roomID, slot)
}

// EntriesByDay returns entries for day in ascending start order.
func (ix *ScheduleIndex) EntriesByDay(day models.Weekday) []models.ScheduleEntry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	result := make([]models.ScheduleEntry, 0)
	ordinal := day.Ordinal()
	ascendFrom(ix.root, indexKey{day: ordinal}, func(n *node) bool {
		if n.key.day != ordinal {
			return false
		}
		result = append(result, *n.entry)
		return true
	})
	return result
}

// All returns every entry ordered by day, start time and id.
func (ix *ScheduleIndex) All() []models.ScheduleEntry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	result := make([]models.ScheduleEntry, 0, len(ix.keys))
	ascendFrom(ix.root, indexKey{}, func(n *node) bool {
		result = append(result, *n.entry)
		return true
	})
	return result
}

// Get returns the entry with id.
func (ix *ScheduleIndex) Get(id string) (models.ScheduleEntry, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	n := ix.lookup(id)
	if n == nil {
		return models.ScheduleEntry{}, false
	}
	return *n.entry, true
}

// Len returns the number of indexed entries.
func (ix *ScheduleIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.keys)
}

// Version increases on every successful mutation.
func (ix *ScheduleIndex) Version() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.version
}

// Height returns the tree height, 0 when empty.
func (ix *ScheduleIndex) Height() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return height(ix.root)
}

// Verify checks ordering, balance, cached heights and the no-double-booking invariant.
func (ix *ScheduleIndex) Verify() error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	count := 0
	var walk func(n *node, lo, hi *indexKey) (int, error)
	walk = func(n *node, lo, hi *indexKey) (int, error) {
		if n == nil {
			return 0, nil
		}
		if lo != nil && n.key.compare(*lo) <= 0 {
			return 0, fmt.Errorf("entry %s out of order", n.key.id)
		}
		if hi != nil && n.key.compare(*hi) >= 0 {
			return 0, fmt.Errorf("entry %s out of order", n.key.id)
		}
		lh, err := walk(n.left, lo, &n.key)
		if err != nil {
			return 0, err
		}
		rh, err := walk(n.right, &n.key, hi)
		if err != nil {
			return 0, err
		}
		if diff := lh - rh; diff > 1 || diff < -1 {
			return 0, fmt.Errorf("entry %s unbalanced (left=%d right=%d)", n.key.id, lh, rh)
		}
		h := 1 + max(lh, rh)
		if h != n.height {
			return 0, fmt.Errorf("entry %s has stale height %d, want %d", n.key.id, n.height, h)
		}
		count++
		return h, nil
	}
	if _, err := walk(ix.root, nil, nil); err != nil {
		return err
	}
	if count != len(ix.keys) {
		return fmt.Errorf("index holds %d nodes but %d ids", count, len(ix.keys))
	}

	// Entries arrive sorted by day and start, so only entries still running can clash.
	var active []*models.ScheduleEntry
	var violation error
	ascendFrom(ix.root, indexKey{}, func(n *node) bool {
		current := n.entry
		kept := active[:0]
		for _, other := range active {
			if other.TimeSlot.Overlaps(*current.TimeSlot) {
				kept = append(kept, other)
			}
		}
		active = kept
		for _, other := range active {
			if other.ProfessorID == current.ProfessorID || other.RoomID == current.RoomID {
				violation = fmt.Errorf("entries %s and %s are double-booked", other.ID, current.ID)
				return false
			}
		}
		active = append(active, current)
		return true
	})
	return violation
}

func (ix *ScheduleIndex) lookup(id string) *node {
	key, ok := ix.keys[id]
	if !ok {
		return nil
	}
	n := ix.root
	for n != nil {
		switch c := key.compare(n.key); {
		case c < 0:
			n = n.left
		case c > 0:
			n = n.right
		default:
			return n
		}
	}
	return nil
}

func (ix *ScheduleIndex) insert(entry models.ScheduleEntry) models.ScheduleEntry {
	if entry.ID == "" {
		panic("scheduling: entry id is required")
	}
	if entry.TimeSlot == nil {
		panic(fmt.Sprintf("scheduling: entry %s has no time slot", entry.ID))
	}
	if _, exists := ix.keys[entry.ID]; exists {
		panic(fmt.Sprintf("scheduling: entry %s already indexed", entry.ID))
	}
	stored := entry
	key := keyOf(&stored)
	ix.root = insertNode(ix.root, key, &stored)
	ix.keys[entry.ID] = key
	ix.version++
	return stored
}

func (ix *ScheduleIndex) delete(id string) (models.ScheduleEntry, bool) {
	n := ix.lookup(id)
	if n == nil {
		return models.ScheduleEntry{}, false
	}
	removed := *n.entry
	ix.root, _ = deleteNode(ix.root, ix.keys[id])
	delete(ix.keys, id)
	ix.version++
	return removed, true
}

func (ix *ScheduleIndex) findConflicts(professorID, roomID string, slot models.TimeSlot) []models.ScheduleConflict {
	conflicts := make([]models.ScheduleConflict, 0)
	if professorID == "" && roomID == "" {
		return conflicts
	}
	ix.scanOverlapping(slot, func(entry *models.ScheduleEntry) bool {
		sameProfessor := professorID != "" && entry.ProfessorID == professorID
		sameRoom := roomID != "" && entry.RoomID == roomID
		if !sameProfessor && !sameRoom {
			return true
		}
		conflicts = append(conflicts, describeConflict(entry, sameProfessor, sameRoom))
		return true
	})
	return conflicts
}

func (ix *ScheduleIndex) isRoomAvailable(roomID string, slot models.TimeSlot) bool {
	available := true
	ix.scanOverlapping(slot, func(entry *models.ScheduleEntry) bool {
		if entry.RoomID == roomID {
			available = false
			return false
		}
		return true
	})
	return available
}

// scanOverlapping walks the slot's day from its first entry up to the last entry that
// starts before slot ends, yielding those that end after slot starts.
func (ix *ScheduleIndex) scanOverlapping(slot models.TimeSlot, yield func(*models.ScheduleEntry) bool) {
	ordinal := slot.Day.Ordinal()
	ascendFrom(ix.root, indexKey{day: ordinal}, func(n *node) bool {
		if n.key.day != ordinal || n.key.start >= slot.EndTime {
			return false
		}
		if !n.entry.TimeSlot.Overlaps(slot) {
			return true
		}
		return yield(n.entry)
	})
}

func describeConflict(entry *models.ScheduleEntry, sameProfessor, sameRoom bool) models.ScheduleConflict {
	dimension := models.ConflictRoom
	switch {
	case sameProfessor && sameRoom:
		dimension = models.ConflictBoth
	case sameProfessor:
		dimension = models.ConflictProfessor
	}

	courseLabel := entry.CourseID
	courseCode := ""
	if entry.Course != nil {
		courseCode = entry.Course.Code
		courseLabel = entry.Course.Code
	}
	slot := *entry.TimeSlot

	var message string
	switch dimension {
	case models.ConflictBoth:
		message = fmt.Sprintf("professor %s and room %s are already booked for %s at %s", entry.ProfessorID, entry.RoomID, courseLabel, slot.Label())
	case models.ConflictProfessor:
		message = fmt.Sprintf("professor %s already teaches %s at %s", entry.ProfessorID, courseLabel, slot.Label())
	default:
		message = fmt.Sprintf("room %s is already booked for %s at %s", entry.RoomID, courseLabel, slot.Label())
	}

	return models.ScheduleConflict{
		EntryID:     entry.ID,
		CourseID:    entry.CourseID,
		CourseCode:  courseCode,
		ProfessorID: entry.ProfessorID,
		RoomID:      entry.RoomID,
		TimeSlotID:  entry.TimeSlotID,
		Day:         slot.Day,
		StartTime:   slot.StartTime,
		EndTime:     slot.EndTime,
		Dimension:   dimension,
		Message:     message,
	}
}
