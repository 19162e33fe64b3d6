package sat

// ResetSet represents a set of variables from 0 to N-1 where N is the
// capacity of the set. Domain uses it as the cone-of-influence mark set,
// which is rebuilt on every EnableLocal call without paying for a full
// reset. (Conflict analysis and unsat-core extraction use VarMarks.)
type ResetSet struct {
	addedAt        []uint16
	addedTimestamp uint16
}

// Contains returns true if v is in the set.
func (rs *ResetSet) Contains(v Var) bool {
	return rs.addedAt[v] == rs.addedTimestamp
}

// Add adds v to the set.
func (rs *ResetSet) Add(v Var) {
	rs.addedAt[v] = rs.addedTimestamp
}

// Clear removes all the elements in the set in constant time.
func (rs *ResetSet) Clear() {
	rs.addedTimestamp++
	if rs.addedTimestamp == 0 { // overflow
		rs.addedTimestamp = 1
		for i := range rs.addedAt {
			rs.addedAt[i] = 0
		}
	}
}

// Expand increases the capacity of the set.
func (rs *ResetSet) Expand() {
	rs.addedAt = append(rs.addedAt, 0)
}

// VarMarks is a boolean mark per variable that supports clearing individual
// members, unlike ResetSet's bulk-only reset. Conflict analysis needs this:
// it unmarks a variable the moment it is resolved, while leaving every
// other mark from the current call intact (§4.5).
type VarMarks struct {
	marked []bool
	touched []Var
}

// Contains reports whether v is marked.
func (m *VarMarks) Contains(v Var) bool { return m.marked[v] }

// Add marks v.
func (m *VarMarks) Add(v Var) {
	if !m.marked[v] {
		m.marked[v] = true
		m.touched = append(m.touched, v)
	}
}

// Remove unmarks v.
func (m *VarMarks) Remove(v Var) { m.marked[v] = false }

// Clear unmarks every variable marked since the last Clear.
func (m *VarMarks) Clear() {
	for _, v := range m.touched {
		m.marked[v] = false
	}
	m.touched = m.touched[:0]
}

// Expand grows the mark set for one freshly introduced variable.
func (m *VarMarks) Expand() {
	m.marked = append(m.marked, false)
}
