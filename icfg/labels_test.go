// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package icfg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLabelTableInternDeduplicates(t *testing.T) {
	tb := NewLabelTable()
	a := tb.Intern("F2V_RET_OK_main")
	b := tb.Intern("F2V_RET_OK_main")
	c := tb.Intern("F2V_RET_EINVAL_main")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Equal(t, 2, tb.Len())
}

func TestLabelTableStringRoundTrip(t *testing.T) {
	tb := NewLabelTable()
	id := tb.Intern("F2V_STORE_ERR_EINVAL_main")

	s, ok := tb.String(id)
	require.True(t, ok)
	require.Equal(t, "F2V_STORE_ERR_EINVAL_main", s)

	_, ok = tb.String(id + 1)
	require.False(t, ok)
	_, ok = tb.String(-1)
	require.False(t, ok)
}

func TestCondBranchLabelFormatsPredicateAndSign(t *testing.T) {
	require.Equal(t, "F2V_CONDBR_SLT_Less", condBranchLabel(predSLT, "Less", true, ""))
}

func TestCondBranchLabelNoAdmittedConstant(t *testing.T) {
	require.Equal(t, "F2V_CONDBR_NAC", condBranchLabel(predEQ, "", false, "NAC"))
}

func TestCondBranchLabelNoAdmittedPredicate(t *testing.T) {
	require.Equal(t, "F2V_CONDBR_NAP", condBranchLabel(predEQ, "", false, "NAP"))
}

func TestPredicateNameNegateIsInvolution(t *testing.T) {
	for _, p := range []predicateName{predEQ, predNE, predSLT, predSLE, predSGT, predSGE} {
		require.Equal(t, p, p.negate().negate())
		require.NotEqual(t, p, p.negate())
	}
}

func TestPredicateNamePairing(t *testing.T) {
	require.Equal(t, predNE, predEQ.negate())
	require.Equal(t, predSGE, predSLT.negate())
	require.Equal(t, predSGT, predSLE.negate())
}

func TestLabelFormatters(t *testing.T) {
	require.Equal(t, "F2V_STORE_ERR_EINVAL_main", storeErrLabel("EINVAL", "main"))
	require.Equal(t, "F2V_INST_store_DIR_3_main", storeDirLabel(3, "main"))
	require.Equal(t, "F2V_INST_store_INDIR_-1_main", storeIndirConstLabel(-1, "main"))
	require.Equal(t, "F2V_INST_store_INDIR_helper_main", storeIndirCalleeLabel("helper", "main"))
	require.Equal(t, "F2V_LOAD_ERR_EINVAL_main", loadErrLabel("EINVAL", "main"))
	require.Equal(t, "F2V_RET_EINVAL_main", retErrLabel("EINVAL", "main"))
	require.Equal(t, "F2V_RET_DIR_0_main", retDirLabel(0, "main"))
	require.Equal(t, "F2V_RET_INDIR_5_main", retIndirConstLabel(5, "main"))
	require.Equal(t, "F2V_RET_helper_main", retCalleeLabel("helper", "main"))
	require.Equal(t, "F2V_GEP_struct.config", gepTypeLabel("struct.config"))
	require.Equal(t, "F2V_INST_getelementptr_main", gepFallbackLabel("main"))
}

func TestInstLabelHasNoSeparator(t *testing.T) {
	// Reproduces the source's literal (separator-less) format
	// exactly, rather than the more readable "opcode_parentfn".
	require.Equal(t, "F2V_INST_addmain", instLabel("add", "main"))
}
