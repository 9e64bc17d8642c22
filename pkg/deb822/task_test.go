package deb822

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTask = `Task: neuroimaging
Description: Neuroimaging

Depends: afni, fsl-core
Published-Title: AFNI: software for analysis of functional neuroimages.
Published-Authors: R. W. Cox
Published-Year: 1996
Published-In: Computers and Biomedical Research
Published-DOI: 10.1006/cbmr.1996.0014
Registration: http://afni.nimh.nih.gov/register

Recommends: mricron | mricron-data, lipsia
Remark: requires a license

Suggests: ${misc:Depends}, connectome-workbench

Homepage: http://example.org
`

func TestParseTasks(t *testing.T) {
	var tasks []*Task
	for task, err := range ParseTasks(strings.NewReader(sampleTask)) {
		require.NoError(t, err)
		tasks = append(tasks, task)
	}
	require.Len(t, tasks, 5)

	def := tasks[0]
	assert.True(t, def.IsDefinition())
	assert.Equal(t, "neuroimaging", def.Task)
	_, _, ok := def.Packages()
	assert.False(t, ok)

	pub := tasks[1]
	assert.False(t, pub.IsDefinition())
	assert.True(t, pub.HasPublication())
	relation, names, ok := pub.Packages()
	require.True(t, ok)
	assert.Equal(t, "Depends", relation)
	assert.Equal(t, []string{"afni", "fsl-core"}, names)
	assert.Equal(t, "R. W. Cox", pub.PublishedAuthors)
	assert.Equal(t, "1996", pub.PublishedYear)
	assert.Equal(t, "Computers and Biomedical Research", pub.PublishedIn)
	assert.Equal(t, "10.1006/cbmr.1996.0014", pub.PublishedDOI)
	assert.Empty(t, pub.PublishedURL)
	assert.Equal(t, "http://afni.nimh.nih.gov/register", pub.Registration)

	rec := tasks[2]
	relation, names, ok = rec.Packages()
	require.True(t, ok)
	assert.Equal(t, "Recommends", relation)
	assert.Equal(t, []string{"mricron", "mricron-data", "lipsia"}, names)
	assert.Equal(t, "requires a license", rec.Remark)

	sug := tasks[3]
	relation, names, ok = sug.Packages()
	require.True(t, ok)
	assert.Equal(t, "Suggests", relation)
	assert.Equal(t, []string{"connectome-workbench"}, names)

	_, _, ok = tasks[4].Packages()
	assert.False(t, ok)
}

func TestTaskPackagesPriority(t *testing.T) {
	input := "Suggests: c\nRecommends: b\nDepends: a\n"
	for task, err := range ParseTasks(strings.NewReader(input)) {
		require.NoError(t, err)
		relation, names, ok := task.Packages()
		require.True(t, ok)
		assert.Equal(t, "Depends", relation)
		assert.Equal(t, []string{"a"}, names)
	}
}
