package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	pb := DefaultPhrasebook()

	assert.Equal(t, "أطفئ التكييف في الغرف غير المستخدمة", pb.Translate(MsgACOff, LangArabic))
	assert.Equal(t, MsgACOff, pb.Translate(MsgACOff, LangEnglish))
	assert.Equal(t, MsgACOff, pb.Translate(MsgACOff, "fr"))
	assert.Equal(t, "something else entirely", pb.Translate("something else entirely", LangArabic))
	assert.Equal(t, "", pb.Translate("", LangArabic))

	var empty Phrasebook
	assert.Equal(t, MsgOptimal, empty.Translate(MsgOptimal, LangArabic))
}

func TestLocalize(t *testing.T) {
	pb := DefaultPhrasebook()
	usage := mustSnapshot(t, 2.8, 0.6, 0.8)

	advice, err := Suggest(usage, DefaultPreferences(), nil, 9, DefaultOptions())
	require.NoError(t, err)

	en := pb.LocalizeAll(advice, LangEnglish)
	assert.Equal(t, Messages(advice), en)

	ar := pb.LocalizeAll(advice, LangArabic)
	require.Len(t, ar, len(advice))
	assert.Contains(t, ar[1], "25")
	assert.Contains(t, ar[2], "0.28 AED")
	for i := range ar {
		assert.NotEqual(t, advice[i].Message, ar[i])
	}

	// Advice built elsewhere without a template still goes through the phrase table
	assert.Equal(t, pb.Translate(MsgOptimal, LangArabic), pb.Localize(Advice{Message: MsgOptimal}, LangArabic))
}

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, LangArabic, ParseLanguage("ar-AE"))
	assert.Equal(t, LangArabic, ParseLanguage(" AR "))
	assert.Equal(t, LangEnglish, ParseLanguage("en_US"))
	assert.Equal(t, LangEnglish, ParseLanguage(""))
}
