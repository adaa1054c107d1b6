package parser

import (
	"sort"
	"strings"
)

// AllowedParents lists, per block kind, the blocks it may appear in.
var AllowedParents = map[string][]string{
	KindMAP:               {KindROOT},
	KindLAYER:             {KindMAP, KindROOT}, // ROOT: INCLUDEd layer files
	KindCLASS:             {KindLAYER},
	KindSTYLE:             {KindCLASS, KindLABEL, KindLEADER},
	KindLABEL:             {KindCLASS, KindLEGEND, KindSCALEBAR},
	KindWEB:               {KindMAP},
	KindMETADATA:          {KindWEB, KindLAYER, KindCLASS},
	KindVALIDATION:        {KindWEB, KindLAYER, KindCLASS},
	KindPROJECTION:        {KindMAP, KindLAYER},
	KindOUTPUTFORMAT:      {KindMAP},
	KindSYMBOL:            {KindMAP, KindSYMBOLSET, KindROOT},
	KindSYMBOLSET:         {KindROOT},
	KindLEGEND:            {KindMAP},
	KindSCALEBAR:          {KindMAP},
	KindQUERYMAP:          {KindMAP},
	KindREFERENCE:         {KindMAP},
	KindCLUSTER:           {KindLAYER},
	KindGRID:              {KindLAYER},
	KindCOMPOSITE:         {KindLAYER},
	KindFEATURE:           {KindLAYER},
	KindJOIN:              {KindLAYER},
	KindPATTERN:           {KindSTYLE},
	KindPOINTS:            {KindFEATURE, KindSYMBOL},
	KindLEADER:            {KindCLASS},
	KindSCALETOKEN:        {KindLAYER},
	KindVALUES:            {KindSCALETOKEN},
	KindCONNECTIONOPTIONS: {KindLAYER},
}

// FreeFormContexts hold key/value or coordinate content whose first tokens
// are not keywords.
var FreeFormContexts = map[string]bool{
	KindMETADATA:          true,
	KindPROJECTION:        true,
	KindVALIDATION:        true,
	KindVALUES:            true,
	KindCONNECTIONOPTIONS: true,
	KindPATTERN:           true,
	KindPOINTS:            true,
}

// KeyValueContexts expect `"key" "value"` pairs on every line.
var KeyValueContexts = map[string]bool{
	KindMETADATA:   true,
	KindVALIDATION: true,
}

var firstTokens = map[string]string{
	KindROOT: `MAP SYMBOLSET SYMBOL LAYER`,
	KindMAP: `ANGLE CONFIG DATAPATTERN DEBUG DEFRESOLUTION EXTENT FONTSET
		IMAGECOLOR IMAGEQUALITY IMAGETYPE INTERLACE LAYER LEGEND MAXSIZE NAME
		OUTPUTFORMAT PROJECTION QUERYMAP REFERENCE RESOLUTION SCALE SCALEDENOM
		SCALEBAR SHAPEPATH SIZE STATUS SYMBOLSET SYMBOL TEMPLATEPATTERN
		TRANSPARENT UNITS WEB`,
	KindLAYER: `CLASS CLASSGROUP CLASSITEM CLUSTER COMPOSITE CONNECTION
		CONNECTIONOPTIONS CONNECTIONTYPE DATA DEBUG DUMP ENCODING EXTENT FEATURE
		FILTER FILTERITEM FOOTER GEOMTRANSFORM GRID GROUP HEADER JOIN
		LABELANGLEITEM LABELCACHE LABELITEM LABELMAXSCALEDENOM
		LABELMINSCALEDENOM LABELREQUIRES LABELSIZEITEM MASK MAXFEATURES
		MAXGEOWIDTH MAXSCALE MAXSCALEDENOM METADATA MINGEOWIDTH MINSCALE
		MINSCALEDENOM NAME OFFSITE OPACITY PLUGIN POSTLABELCACHE PROCESSING
		PROJECTION REQUIRES SCALETOKEN SIZEUNITS STATUS STYLEITEM
		SYMBOLSCALE SYMBOLSCALEDENOM TEMPLATE TILEINDEX TILEITEM TILESRS
		TOLERANCE TOLERANCEUNITS TRANSFORM TRANSPARENCY TYPE UNITS UTFDATA
		UTFITEM VALIDATION`,
	KindCLASS: `BACKGROUNDCOLOR COLOR DEBUG EXPRESSION GROUP KEYIMAGE LABEL
		LEADER MAXSCALE MAXSCALEDENOM MAXSIZE METADATA MINSCALE MINSCALEDENOM
		MINSIZE NAME OUTLINECOLOR SIZE STATUS STYLE SYMBOL TEMPLATE TEXT TITLE
		VALIDATION`,
	KindSTYLE: `ANGLE ANTIALIAS BACKGROUNDCOLOR COLOR COLORRANGE DATARANGE GAP
		GEOMTRANSFORM INITIALGAP LINECAP LINEJOIN LINEJOINMAXSIZE MAXSCALEDENOM
		MAXSIZE MAXWIDTH MINSCALEDENOM MINSIZE MINWIDTH OFFSET OPACITY
		OUTLINECOLOR OUTLINEWIDTH PATTERN POLAROFFSET RANGEITEM SIZE SYMBOL
		WIDTH`,
	KindLABEL: `ALIGN ANGLE ANTIALIAS BUFFER COLOR ENCODING EXPRESSION FONT FORCE
		MAXLENGTH MAXOVERLAPANGLE MAXSCALEDENOM MAXSIZE MINDISTANCE
		MINFEATURESIZE MINSCALEDENOM MINSIZE OFFSET OUTLINECOLOR OUTLINEWIDTH
		PARTIALS POSITION PRIORITY REPEATDISTANCE SHADOWCOLOR SHADOWSIZE SIZE
		STYLE TEXT TYPE WRAP`,
	KindWEB: `BROWSEFORMAT EMPTY ERROR FOOTER HEADER IMAGEPATH IMAGEURL
		LEGENDFORMAT LOG MAXSCALEDENOM MAXTEMPLATE METADATA MINSCALEDENOM
		MINTEMPLATE QUERYFORMAT TEMPDIRECTORY TEMPLATE VALIDATION`,
	KindOUTPUTFORMAT: `DRIVER EXTENSION FORMATOPTION IMAGEMODE MIMETYPE NAME
		TRANSPARENT`,
	KindSYMBOL: `ANCHORPOINT ANTIALIAS CHARACTER FILLED FONT IMAGE NAME POINTS
		TRANSPARENT TYPE`,
	KindSYMBOLSET: `SYMBOL`,
	KindLEGEND: `IMAGECOLOR KEYSIZE KEYSPACING LABEL OUTLINECOLOR POSITION
		POSTLABELCACHE STATUS TEMPLATE TRANSPARENT`,
	KindSCALEBAR: `ALIGN BACKGROUNDCOLOR COLOR IMAGECOLOR INTERVALS LABEL OFFSET
		OUTLINECOLOR POSITION POSTLABELCACHE SIZE STATUS STYLE TRANSPARENT
		UNITS`,
	KindQUERYMAP:   `COLOR SIZE STATUS STYLE`,
	KindREFERENCE:  `COLOR EXTENT IMAGE MARKER MARKERSIZE MAXBOXSIZE MINBOXSIZE OUTLINECOLOR SIZE STATUS`,
	KindCLUSTER:    `BUFFER FILTER GROUP MAXDISTANCE REGION`,
	KindGRID:       `LABELFORMAT MAXARCS MAXINTERVAL MAXSUBDIVIDE MINARCS MININTERVAL MINSUBDIVIDE`,
	KindCOMPOSITE:  `COMPFILTER COMPOP OPACITY`,
	KindFEATURE:    `ITEMS POINTS TEXT WKT`,
	KindJOIN:       `CONNECTION CONNECTIONTYPE FOOTER FROM HEADER NAME TABLE TEMPLATE TO TYPE`,
	KindLEADER:     `GRIDSTEP MAXDISTANCE STYLE`,
	KindSCALETOKEN: `NAME VALUES`,
}

// keywords valid in every context
var anywhere = []string{"INCLUDE", KeywordEND}

// AllowedFirstTokens maps a context to the keywords that may start a line
// directly inside it. Free-form contexts have no entry.
var AllowedFirstTokens = buildFirstTokens()

// KnownKeywords is every keyword the grammar knows about.
var KnownKeywords = buildKnownKeywords()

func buildFirstTokens() map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(firstTokens))
	for ctx, list := range firstTokens {
		set := make(map[string]bool)
		for _, kw := range strings.Fields(list) {
			set[kw] = true
		}
		for _, kw := range anywhere {
			set[kw] = true
		}
		out[ctx] = set
	}
	return out
}

func buildKnownKeywords() map[string]bool {
	out := make(map[string]bool)
	for _, set := range AllowedFirstTokens {
		for kw := range set {
			out[kw] = true
		}
	}
	for kind := range AllowedParents {
		out[kind] = true
	}
	return out
}

// ContextsAccepting returns, sorted, the contexts whose first-token set
// contains kw.
func ContextsAccepting(kw string) []string {
	var out []string
	for ctx, set := range AllowedFirstTokens {
		if set[kw] {
			out = append(out, ctx)
		}
	}
	sort.Strings(out)
	return out
}
