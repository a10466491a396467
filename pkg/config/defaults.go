package config

import "github.com/groboclown/mvn2get/pkg/maven"

var defaultRemoteRepoURLs = []string{
	"https://repo1.maven.org/maven2/",
	"https://www.mvnrepository.com/artifact/",
	"https://plugins.gradle.org/m2/",
}

var defaultPGPKeyServers = []string{
	"hkp://pool.sks-keyservers.net",
	"hkps://hkps.pool.sks-keyservers.net",
}

// Artifacts published with a missing or bogus group id, keyed by the
// group prefix (ending in ".") or, for group-less publications, the
// artifact id that identifies them.
func defaultMislabeledGroups() map[string]maven.GroupRewrite {
	return map[string]maven.GroupRewrite{
		"org.apache.felix.": {NewGroup: "org.apache.felix"},
		"org.osgi.":         {NewGroup: "org.osgi", NewArtifactPrefix: "org.osgi."},
		"wagon-http-shared": {NewGroup: "org.apache.maven.wagon", NewArtifactPrefix: "wagon-http-shared"},
	}
}

// License URLs that unambiguously identify an acceptable license.
// URLs that merely point at a project page belong in the names list
// instead.
var defaultAcceptableLicenseURLs = []string{
	// Apache Software License, all versions.
	"http://www.apache.org/licenses/",
	"http://www.apache.org/licenses/LICENSE-1.1",
	"http://opensource.org/licenses/apache2.0.php",
	"http://opensource.org/licenses/Apache-2.0",
	"http://www.opensource.org/licenses/apache2.0.php",
	"http://www.apache.org/licenses/LICENSE-2.0",
	"http://www.apache.org/licenses/LICENSE-2.0.txt",
	"http://www.apache.org/license/LICENSE-2.0.txt",
	"http://www.apache.org/licenses/LICENSE-2.0.html",
	"https://www.apache.org/licenses/LICENSE-2.0",
	"https://www.apache.org/licenses/LICENSE-2.0.txt",
	"http://www.scala-lang.org/downloads/license.html",
	"https://raw.github.com/jsr107/jsr107spec/master/LICENSE.txt",

	// BSD variants.
	"http://xmlunit.svn.sourceforge.net/viewvc/*checkout*/xmlunit/trunk/xmlunit/LICENSE.txt",
	"http://jdbc.postgresql.org/license.html",
	"https://jdbc.postgresql.org/about/license.html",
	"http://antlr.org/license.html",
	"http://www.antlr.org/license.html",
	"http://en.wikipedia.org/wiki/BSD_licenses",
	"http://www.opensource.org/licenses/bsd-license.php",
	"http://www.opensource.org/licenses/bsd-license.html",
	"http://opensource.org/licenses/BSD-2-Clause",
	"http://www.scala-lang.org/license.html",
	"http://opensource.org/licenses/BSD-3-Clause",
	"http://asm.ow2.org/license.html",
	"https://asm.ow2.io/license.html",
	"http://asm.objectweb.org/license.html",
	"https://github.com/scodec/scodec-bits/blob/master/LICENSE",
	"https://github.com/sbt/test-interface/blob/master/LICENSE",
	"http://jaxen.codehaus.org/license.html",
	"https://github.com/codehaus/jaxen/blob/master/jaxen/LICENSE.txt",
	"http://dist.codehaus.org/janino/new_bsd_license.txt",
	"https://github.com/dom4j/dom4j/blob/master/LICENSE",
	"http://www.jcraft.com/jzlib/LICENSE.txt",
	"http://www.jcraft.com/jsch/LICENSE.txt",
	"http://treelayout.googlecode.com/files/LICENSE.TXT",

	// MIT.
	"http://objenesis.googlecode.com/svn/docs/license.html",
	"https://github.com/mockito/mockito/blob/master/LICENSE",
	"http://github.com/mockito/mockito/blob/master/LICENSE",
	"http://code.google.com/p/mockito/wiki/License",
	"http://www.opensource.org/licenses/mit-license.php",
	"http://www.opensource.org/licenses/mit-license.html",
	"http://opensource.org/licenses/MIT",
	"https://opensource.org/licenses/MIT",
	"http://www.opensource.org/licenses/MIT",
	"https://raw.github.com/tatsuhiro-t/argparse4j/master/LICENSE.txt",

	// Common Public License 1.0.
	"http://www.opensource.org/licenses/cpl1.0.txt",

	// Bouncy Castle (read as MIT).
	"http://www.bouncycastle.org/licence.html",

	// Mozilla Public License.
	"http://www.mozilla.org/MPL/MPL-1.0.txt",
	"http://www.mozilla.org/MPL/MPL-1.1.html",
	"http://www.mozilla.org/MPL/2.0/index.txt",
	"http://www.mozilla.org/MPL/2.0/",

	// CDDL, including the GPLv2-with-classpath-exception dual license.
	"https://glassfish.dev.java.net/public/CDDLv1.0.html",
	"http://www.sun.com/cddl/cddl.html",
	"http://www.sun.com/cddl",
	"http://repository.jboss.org/licenses/cddl.txt",
	"http://www.opensource.org/licenses/cddl1.php",
	"https://oss.oracle.com/licenses/CDDL+GPL-1.1",
	"http://glassfish.dev.java.net/nonav/public/CDDL+GPL.html",
	"https://glassfish.dev.java.net/public/CDDL+GPL.html",
	"https://glassfish.dev.java.net/public/CDDL+GPL_1_1.html",
	"https://glassfish.dev.java.net/nonav/public/CDDL+GPL.html",
	"http://glassfish.java.net/public/CDDL+GPL_1_1.html",
	"https://glassfish.java.net/public/CDDL+GPL_1_1.html",
	"https://glassfish.java.net/nonav/public/CDDL+GPL_1_1.html",
	"http://glassfish.java.net/public/CDDL+GPL.html",

	// Eclipse licenses.
	"http://www.eclipse.org/org/documents/edl-v10.php",
	"http://www.eclipse.org/legal/epl-v10.html",
	"http://opensource.org/licenses/eclipse-1.0.php",
	"http://www.spdx.org/licenses/EPL-1.0",
	"http://www.eclipse.org/legal/epl-v20.html",
	"https://www.eclipse.org/legal/epl-v20.html",
	"http://www.eclipse.org/legal/epl-2.0",
	"https://www.eclipse.org/org/documents/epl-2.0/EPL-2.0.txt",

	// PostgreSQL.
	"http://www.postgresql.org/about/licence/",

	// WTFPL.
	"http://www.wtfpl.net/",

	// JSON License.
	"http://json.org/license.html",
	"http://www.json.org/license.html",

	// HSQLDB (BSD-3-like).
	"http://hsqldb.org/web/hsqlLicense.html",

	// Public domain and CC0.
	"http://creativecommons.org/licenses/publicdomain",
	"http://www.xmlpull.org/v1/download/unpacked/LICENSE.txt",
	"http://creativecommons.org/publicdomain/zero/1.0/",

	// LGPL.
	"http://www.gnu.org/licenses/lgpl.txt",
	"http://www.gnu.org/licenses/lgpl.html",
	"http://www.gnu.org/copyleft/lesser.html",
	"http://www.gnu.org/licenses/lgpl-2.1.html",
	"https://www.gnu.org/licenses/old-licenses/lgpl-2.1.en.html",
	"http://www.gnu.org/licenses/lgpl-3.0.txt",

	// H2 (MPL 2.0 or EPL 1.0).
	"http://h2database.com/html/license.html",

	// Apple sample code.
	"http://developer.apple.com/library/mac/#samplecode/AppleJavaExtensions/Listings/README_txt.html#//apple_ref/doc/uid/DTS10000677-README_txt-DontLinkElementID_3",
}

// License names matched when the URL did not identify the license.
// Matching is case-insensitive substring over whitespace-collapsed
// text.
var defaultAcceptableLicenseNames = []string{
	"Apache License",
	"Apache License Version 2.0",
	"Apache License, Version 2.0",
	"Apache  Version 2.0, January 2004",
	"The Apache Software License, Version 2.0",
	"Public Domain",
	"BSD License (FreeBSD)",
	"BSD",
	"BSD License",
	"The BSD 2-Clause License",
	"The New BSD License",
	"Java HTML Tidy License",
	"The MIT License",
	"MIT License",
	"CDDL + GPLv2 with classpath exception",
	"CDDL/GPLv2+CE",
}
