package inline

import (
	"github.com/totalspectrum/ppcc-optimizer/internal/frontend"
	"github.com/totalspectrum/ppcc-optimizer/internal/ir"
)

// MergeDuplicates implements spec.md §4.5's "Hashing": functions with
// identical SHA-256 hashes are redirected to one representative, the
// representative inheriting the union of used-as-pointer/cog-task flags
// and the sum of call-site counts. Physically dropping the now-unreferenced
// duplicate from the compilation unit is left to OptRemoveUnusedFuncs
// (outside this package's scope) once its CallSites reaches zero; here the
// duplicate is left with CallSites zeroed and every external reference to
// it redirected.
func MergeDuplicates(functions []*frontend.Function) int {
	for _, fn := range functions {
		fn.Body.AssignAddresses()
	}

	groups := map[[32]byte][]*frontend.Function{}
	for _, fn := range functions {
		h := HashFunction(fn)
		groups[h] = append(groups[h], fn)
	}

	merged := 0
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		rep := group[0]
		for _, dup := range group[1:] {
			rep.UsedAsPtr = rep.UsedAsPtr || dup.UsedAsPtr
			rep.CogTask = rep.CogTask || dup.CogTask
			rep.CallSites += dup.CallSites
			redirectCallers(functions, dup.Name, rep.Name)
			dup.CallSites = 0
			merged++
		}
	}
	return merged
}

// redirectCallers rewrites every CALL's CalleeInfo.Name across every
// function in the unit from oldName to newName.
func redirectCallers(functions []*frontend.Function, oldName, newName string) {
	for _, fn := range functions {
		fn.Body.Walk(func(i *ir.Instruction) {
			if ci := ir.CalleeOf(i); ci != nil && ci.Name == oldName {
				ci.Name = newName
			}
		})
	}
}
